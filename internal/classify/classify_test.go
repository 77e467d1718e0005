package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/flashread-worker/internal/model"
)

func TestClassify_EmptyTextIsOther(t *testing.T) {
	assert.Equal(t, model.BlockOther, Classify("   ", Position{}))
	assert.Equal(t, model.BlockOther, Classify("", Position{}))
}

func TestClassify_PageNumberPatterns(t *testing.T) {
	cases := []string{"12", "- 12 -", "Page 7", "[3]", "(42)"}
	for _, c := range cases {
		assert.Equal(t, model.BlockPageNumber, Classify(c, Position{}), "input: %q", c)
	}
}

func TestClassify_Caption(t *testing.T) {
	assert.Equal(t, model.BlockCaption, Classify("Figure 3: a diagram of the pipeline", Position{}))
	assert.Equal(t, model.BlockCaption, Classify("Table 1. Results", Position{}))
}

func TestClassify_SectionHeader(t *testing.T) {
	assert.Equal(t, model.BlockSectionHeader, Classify("Introduction", Position{}))
	assert.Equal(t, model.BlockSectionHeader, Classify("1. Background", Position{}))
}

func TestClassify_FootnoteMarker(t *testing.T) {
	assert.Equal(t, model.BlockFootnote, Classify("¹ see appendix for details", Position{}))
	assert.Equal(t, model.BlockFootnote, Classify("[1] a citation-style footnote", Position{}))
	assert.Equal(t, model.BlockFootnote, Classify("* a starred note", Position{}))
}

func TestClassify_SuperscriptIExcludedFromFootnoteMarker(t *testing.T) {
	// U+2071 (superscript latin small letter i) is not a digit and must not
	// be treated as a footnote marker.
	assert.NotEqual(t, model.BlockFootnote, Classify("ⁱ not a footnote marker at all, just ordinary paragraph text that runs long enough to not match any other rule", Position{}))
}

func TestClassify_HeaderByPosition(t *testing.T) {
	pos := Position{YStart: 0.02, YEnd: 0.05, XCenter: 0.5, WidthRatio: 0.8, Known: true}
	assert.Equal(t, model.BlockHeader, Classify("Running head text", pos))
}

func TestClassify_BBoxInHeaderZoneButTooLongIsNotHeader(t *testing.T) {
	// y/page_h = 0.079 still falls inside the header zone (y_start < 0.08),
	// but the header rule additionally requires length < 80 chars — a long
	// block at that position is not reclassified as a header by position.
	pos := Position{YStart: 0.079, YEnd: 0.079, XCenter: 0.5, WidthRatio: 0.8, Known: true}
	longText := "This block sits almost exactly at the header-zone boundary but runs past eighty characters in length"
	assert.NotEqual(t, model.BlockHeader, Classify(longText, pos))
}

func TestClassify_FooterPageNumberByPosition(t *testing.T) {
	pos := Position{YStart: 0.95, YEnd: 0.97, XCenter: 0.5, WidthRatio: 0.1, Known: true}
	assert.Equal(t, model.BlockPageNumber, Classify("42", pos))
}

func TestClassify_FootnoteZoneByPosition(t *testing.T) {
	// Starts with a leading digit but does not match the section-header
	// digit-prefix pattern (which requires an upper-case letter next), so
	// it falls through content patterns to the footnote-zone position rule.
	pos := Position{YStart: 0.85, YEnd: 0.88, XCenter: 0.3, WidthRatio: 0.6, Known: true}
	assert.Equal(t, model.BlockFootnote, Classify("1 a note explaining the superscript reference above in more detail than usual", pos))
}

func TestClassify_CenteredNarrowText(t *testing.T) {
	pos := Position{YStart: 0.4, YEnd: 0.45, XCenter: 0.52, WidthRatio: 0.3, Known: true}
	assert.Equal(t, model.BlockSectionHeader, Classify("Short Centered Title", pos))
}

func TestClassify_DefaultsToParagraph(t *testing.T) {
	longText := "This is an ordinary paragraph of body text that does not match any " +
		"of the content patterns and carries no positional information at all."
	assert.Equal(t, model.BlockParagraph, Classify(longText, Position{}))
}

func TestClassify_IsDeterministic(t *testing.T) {
	pos := Position{YStart: 0.5, YEnd: 0.55, XCenter: 0.5, WidthRatio: 0.4, Known: true}
	text := "Some repeatable input text"
	first := Classify(text, pos)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(text, pos))
	}
}

func TestComputePosition_UnknownWithoutBBoxOrDims(t *testing.T) {
	assert.False(t, ComputePosition(nil, 100, 100).Known)
	assert.False(t, ComputePosition(&model.BBox{}, 0, 100).Known)
	assert.False(t, ComputePosition(&model.BBox{}, 100, 0).Known)
}

func TestComputePosition_Normalizes(t *testing.T) {
	bbox := &model.BBox{X: 100, Y: 50, W: 200, H: 20}
	pos := ComputePosition(bbox, 1000, 1000)
	assert.True(t, pos.Known)
	assert.InDelta(t, 0.05, pos.YStart, 1e-9)
	assert.InDelta(t, 0.07, pos.YEnd, 1e-9)
	assert.InDelta(t, 0.2, pos.WidthRatio, 1e-9)
	assert.InDelta(t, 0.2, pos.XCenter, 1e-9)
}
