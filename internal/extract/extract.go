/**
 * Direct Extractor: pulls the embedded text layer out of a PDF without OCR.
 * Uses the same MuPDF bindings as the Page Renderer.
 */

package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/adverant/flashread-worker/internal/model"
)

const engineIdentifier = "pymupdf-equivalent"

// Extract opens pdfBytes, iterates pages in order, and produces a Result
// with one paragraph block per non-empty page (engine "pymupdf-equivalent",
// method "direct", confidence fields null). doc_text concatenates per-page
// text, each page (the first included) preceded by "\n\n--- Page <n> ---\n\n".
func Extract(pdfBytes []byte, pipelineVersion string) (*model.Result, error) {
	start := time.Now()

	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages := make([]model.Page, 0, numPages)
	var docText strings.Builder
	charCount := 0

	for i := 0; i < numPages; i++ {
		text, terr := doc.Text(i)
		if terr != nil {
			text = ""
		}

		var blocks []model.Block
		if strings.TrimSpace(text) != "" {
			blocks = []model.Block{{
				Type: model.BlockParagraph,
				Text: text,
			}}
		}

		pages = append(pages, model.Page{
			Page:    i + 1,
			Blocks:  blocks,
			Text:    text,
			RawText: text,
		})

		fmt.Fprintf(&docText, "\n\n--- Page %d ---\n\n", i+1)
		docText.WriteString(text)
		charCount += len(text)
	}

	runtimeMs := time.Since(start).Milliseconds()

	return &model.Result{
		CreatedAt:       time.Now(),
		Engine:          engineIdentifier,
		EngineVersion:   "1",
		PipelineVersion: pipelineVersion,
		Pages:           pages,
		DocText:         docText.String(),
		Metrics: model.Metrics{
			TotalPages: numPages,
			Method:     "direct",
			CharCount:  charCount,
			RuntimeMs:  runtimeMs,
		},
	}, nil
}
