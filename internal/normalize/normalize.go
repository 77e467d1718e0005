/**
 * Normaliser: turns raw engine blocks into Page records and assembles the
 * final Result. Block roles come from the Block Classifier unless
 * classification has been opted out, in which case every block is a
 * paragraph.
 */

package normalize

import (
	"strings"
	"time"

	"github.com/adverant/flashread-worker/internal/classify"
	"github.com/adverant/flashread-worker/internal/model"
)

// NormalizePage assigns a semantic role to each raw block on a page and
// returns the finished Page record. pageWidth/pageHeight are the pixel
// dimensions the blocks' bounding boxes are expressed in; pass 0 for either
// when dimensions are unknown (position-based rules are then skipped).
func NormalizePage(pageNum int, blocks []model.Block, pageWidth, pageHeight float64, doClassify bool) model.Page {
	normalized := make([]model.Block, len(blocks))
	var rawText strings.Builder

	for i, b := range blocks {
		out := b
		if doClassify {
			pos := classify.ComputePosition(b.BBox, pageWidth, pageHeight)
			out.Type = classify.Classify(b.Text, pos)
		} else {
			out.Type = model.BlockParagraph
		}
		normalized[i] = out

		if i > 0 {
			rawText.WriteString("\n")
		}
		rawText.WriteString(b.Text)
	}

	text := coreContentText(normalized)

	return model.Page{
		Page:    pageNum,
		Blocks:  normalized,
		Text:    text,
		RawText: rawText.String(),
	}
}

// BuildResultOptions carries the metrics BuildResult cannot derive from the
// pages themselves.
type BuildResultOptions struct {
	Engine          string
	EngineVersion   string
	PipelineVersion string
	Method          string
	RuntimeMs       int64
	DPIInitial      *int
	DPIRerun        *int
	BadPages        []int
	FallbackPages   []int
	Warnings        []string
	FilterDocText   bool
}

// BuildResult assembles the final Result from normalized pages: char_count
// and avg_conf are computed across every block, and doc_text joins each
// page's text (core-content only, when FilterDocText is set) with a blank
// line between pages. Pages that contribute no text are skipped entirely
// when building doc_text, matching the ground truth's behaviour of never
// emitting page-separator noise into the document text.
func BuildResult(pages []model.Page, opts BuildResultOptions) *model.Result {
	charCount := 0
	var confSum float64
	var confCount int

	docTextParts := make([]string, 0, len(pages))
	for _, p := range pages {
		for _, b := range p.Blocks {
			charCount += len(b.Text)
			if b.Confidence != nil {
				confSum += *b.Confidence
				confCount++
			}
		}

		pageText := p.Text
		if opts.FilterDocText {
			pageText = coreContentText(p.Blocks)
		} else {
			pageText = rawJoin(p.Blocks)
		}
		if pageText != "" {
			docTextParts = append(docTextParts, pageText)
		}
	}

	var avgConf *float64
	if confCount > 0 {
		v := confSum / float64(confCount)
		avgConf = &v
	}

	badPages := opts.BadPages
	if badPages == nil {
		badPages = []int{}
	}
	fallbackPages := opts.FallbackPages
	if fallbackPages == nil {
		fallbackPages = []int{}
	}
	warnings := opts.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &model.Result{
		CreatedAt:       time.Now(),
		Engine:          opts.Engine,
		EngineVersion:   opts.EngineVersion,
		PipelineVersion: opts.PipelineVersion,
		Pages:           pages,
		DocText:         strings.Join(docTextParts, "\n\n"),
		Metrics: model.Metrics{
			TotalPages:    len(pages),
			Method:        opts.Method,
			CharCount:     charCount,
			AvgConf:       avgConf,
			RuntimeMs:     opts.RuntimeMs,
			DPIInitial:    opts.DPIInitial,
			DPIRerun:      opts.DPIRerun,
			BadPages:      badPages,
			FallbackPages: fallbackPages,
		},
		Warnings: warnings,
	}
}

// coreContentText joins the text of blocks whose type is considered core
// content, one block per line.
func coreContentText(blocks []model.Block) string {
	var parts []string
	for _, b := range blocks {
		if model.IsCoreContent(b.Type) {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// rawJoin joins every block's text regardless of type, one block per line.
func rawJoin(blocks []model.Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n")
}
