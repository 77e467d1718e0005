package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/flashread-worker/internal/model"
)

func conf(v float64) *float64 { return &v }

func TestDocumentSufficient_BoundaryCharCount(t *testing.T) {
	text500 := make([]byte, 500)
	for i := range text500 {
		text500[i] = 'a'
	}
	assert.True(t, DocumentSufficient(string(text500), 1))

	text499 := text500[:499]
	assert.False(t, DocumentSufficient(string(text499), 1))
}

func TestDocumentSufficient_PerPageMinimumDominatesForManyPages(t *testing.T) {
	// 10 pages * 50 chars/page = 500, same as the absolute floor.
	text := make([]byte, 500)
	for i := range text {
		text[i] = 'a'
	}
	assert.True(t, DocumentSufficient(string(text), 10))

	// 20 pages needs 1000 chars; 500 is no longer enough.
	assert.False(t, DocumentSufficient(string(text), 20))
}

func TestDocumentSufficient_EmptyTextAlwaysInsufficient(t *testing.T) {
	assert.False(t, DocumentSufficient("", 1))
}

func TestDocumentSufficient_NonWhitespaceRatio(t *testing.T) {
	// 700 chars total but mostly whitespace - fails the ratio test even
	// though the raw length clears the floor.
	text := ""
	for i := 0; i < 600; i++ {
		text += " "
	}
	for i := 0; i < 100; i++ {
		text += "a"
	}
	assert.False(t, DocumentSufficient(text, 1))
}

func TestDocumentSufficient_MonotoneInTextLength(t *testing.T) {
	base := ""
	for i := 0; i < 600; i++ {
		base += "a"
	}
	require := assert.New(t)
	require.True(DocumentSufficient(base, 1))
	require.True(DocumentSufficient(base+"more text that only adds content", 1))
}

func TestPageOK_ExactBoundaries(t *testing.T) {
	chars50 := make([]byte, 50)
	for i := range chars50 {
		chars50[i] = 'a'
	}
	okConf := conf(0.6)
	page := model.Page{Blocks: []model.Block{{Text: string(chars50), Confidence: okConf}}}
	assert.True(t, PageOK(page, 50, 0.6))

	chars49 := chars50[:49]
	page.Blocks[0].Text = string(chars49)
	assert.False(t, PageOK(page, 50, 0.6))

	page.Blocks[0].Text = string(chars50)
	page.Blocks[0].Confidence = conf(0.59)
	assert.False(t, PageOK(page, 50, 0.6))
}

func TestPageOK_NoConfidencePassesVacuously(t *testing.T) {
	chars50 := make([]byte, 50)
	for i := range chars50 {
		chars50[i] = 'a'
	}
	page := model.Page{Blocks: []model.Block{{Text: string(chars50)}}}
	assert.True(t, PageOK(page, 50, 0.6))
}

func TestPageOK_NoBlocksFails(t *testing.T) {
	assert.False(t, PageOK(model.Page{}, 50, 0.6))
}

func TestGenerateVersionKey_Format(t *testing.T) {
	at := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	key := GenerateVersionKey("pymupdf", "1.23.8", "1.0.0", at)
	assert.Equal(t, "pymupdf_1.23.8_1.0.0_1769860800000", key)
}
