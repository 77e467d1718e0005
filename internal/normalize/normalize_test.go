package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/flashread-worker/internal/model"
)

func conf(v float64) *float64 { return &v }

func TestNormalizePage_ClassifiesWhenRequested(t *testing.T) {
	blocks := []model.Block{
		{Text: "Introduction"},
		{Text: "Some ordinary body text that reads like a paragraph of content."},
	}
	page := NormalizePage(1, blocks, 0, 0, true)
	assert.Equal(t, model.BlockSectionHeader, page.Blocks[0].Type)
	assert.Equal(t, model.BlockParagraph, page.Blocks[1].Type)
}

func TestNormalizePage_SkipsClassificationWhenDisabled(t *testing.T) {
	blocks := []model.Block{{Text: "Introduction"}}
	page := NormalizePage(1, blocks, 0, 0, false)
	assert.Equal(t, model.BlockParagraph, page.Blocks[0].Type)
}

func TestBuildResult_CharCountSumsAllBlocks(t *testing.T) {
	pages := []model.Page{
		{Page: 1, Blocks: []model.Block{{Type: model.BlockParagraph, Text: "hello"}, {Type: model.BlockFootnote, Text: "note"}}},
		{Page: 2, Blocks: []model.Block{{Type: model.BlockParagraph, Text: "world!"}}},
	}
	result := BuildResult(pages, BuildResultOptions{Engine: "paddle", EngineVersion: "1", PipelineVersion: "1.0.0", Method: "paddle"})
	assert.Equal(t, len("hello")+len("note")+len("world!"), result.Metrics.CharCount)
}

func TestBuildResult_AvgConfNullWhenNoConfidences(t *testing.T) {
	pages := []model.Page{{Page: 1, Blocks: []model.Block{{Type: model.BlockParagraph, Text: "hello"}}}}
	result := BuildResult(pages, BuildResultOptions{Method: "direct"})
	assert.Nil(t, result.Metrics.AvgConf)
}

func TestBuildResult_AvgConfIsArithmeticMean(t *testing.T) {
	pages := []model.Page{
		{Page: 1, Blocks: []model.Block{
			{Type: model.BlockParagraph, Text: "a", Confidence: conf(0.8)},
			{Type: model.BlockParagraph, Text: "b", Confidence: conf(0.6)},
		}},
	}
	result := BuildResult(pages, BuildResultOptions{Method: "paddle"})
	if assert.NotNil(t, result.Metrics.AvgConf) {
		assert.InDelta(t, 0.7, *result.Metrics.AvgConf, 1e-9)
	}
}

func TestBuildResult_DocTextFiltersNonCoreContentAndJoinsPages(t *testing.T) {
	pages := []model.Page{
		{Page: 1, Blocks: []model.Block{
			{Type: model.BlockParagraph, Text: "first page body"},
			{Type: model.BlockFootnote, Text: "excluded footnote"},
		}},
		{Page: 2, Blocks: []model.Block{
			{Type: model.BlockParagraph, Text: "second page body"},
		}},
	}
	result := BuildResult(pages, BuildResultOptions{Method: "paddle", FilterDocText: true})
	assert.Equal(t, "first page body\n\nsecond page body", result.DocText)
}

func TestBuildResult_EmptyPageListsDefaultToEmptySlices(t *testing.T) {
	result := BuildResult(nil, BuildResultOptions{Method: "paddle"})
	assert.Equal(t, 0, result.Metrics.TotalPages)
	assert.Equal(t, "", result.DocText)
	assert.NotNil(t, result.Metrics.BadPages)
	assert.NotNil(t, result.Metrics.FallbackPages)
	assert.NotNil(t, result.Warnings)
}
