/**
 * OCR Router: the three-phase adaptive escalation pipeline.
 *
 * Phase 1 runs the primary engine on every page at the initial DPI. Pages
 * that fail the per-page quality check are rerendered at a higher DPI and
 * retried on the primary engine (Phase 2). Pages still failing after the
 * rerun are rendered again at the rerun DPI and passed to the fallback
 * engine (Phase 3).
 */

package router

import (
	"context"
	"fmt"
	"time"

	"github.com/adverant/flashread-worker/internal/model"
	"github.com/adverant/flashread-worker/internal/normalize"
	"github.com/adverant/flashread-worker/internal/ocr"
	"github.com/adverant/flashread-worker/internal/quality"
	"github.com/adverant/flashread-worker/internal/render"
)

// Options configures a Process call.
type Options struct {
	DPIInitial      int
	DPIRerun        int
	MinConfidence   float64
	MinCharsPerPage int
	PipelineVersion string
	Language        string
}

type pageOutcome struct {
	pageNum      int
	blocks       []model.Block
	method       string
	dpiUsed      int
	neededRerun  bool
	usedFallback bool
	pageWidth    float64
	pageHeight   float64
}

// Process runs the adaptive OCR pipeline over every page of pdfBytes and
// returns the finished Result.
func Process(ctx context.Context, pdfBytes []byte, primary, fallback ocr.Engine, opts Options) (*model.Result, error) {
	start := time.Now()

	pageCount, err := render.PageCount(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot determine page count: %w", err)
	}

	outcomes := make([]*pageOutcome, pageCount)
	var badPages []int

	// Phase 1: primary engine at the initial DPI.
	for i := 0; i < pageCount; i++ {
		img, rerr := render.Render(pdfBytes, i, opts.DPIInitial)
		if rerr != nil {
			badPages = append(badPages, i)
			continue
		}

		blocks, oerr := primary.OCR(ctx, img, opts.Language)
		if oerr != nil {
			blocks = nil
		}

		if pageQualityOK(blocks, opts) {
			bounds := img.Bounds()
			outcomes[i] = &pageOutcome{
				pageNum: i, blocks: blocks, method: "paddle", dpiUsed: opts.DPIInitial,
				pageWidth: float64(bounds.Dx()), pageHeight: float64(bounds.Dy()),
			}
		} else {
			badPages = append(badPages, i)
		}
	}

	// Phase 2: rerender bad pages at the rerun DPI, retry the primary engine.
	var stillBad []int
	if len(badPages) > 0 {
		for _, i := range badPages {
			img, rerr := render.Render(pdfBytes, i, opts.DPIRerun)
			if rerr != nil {
				stillBad = append(stillBad, i)
				continue
			}

			blocks, oerr := primary.OCR(ctx, img, opts.Language)
			if oerr != nil {
				blocks = nil
			}

			if pageQualityOK(blocks, opts) {
				bounds := img.Bounds()
				outcomes[i] = &pageOutcome{
					pageNum: i, blocks: blocks, method: "paddle", dpiUsed: opts.DPIRerun, neededRerun: true,
					pageWidth: float64(bounds.Dx()), pageHeight: float64(bounds.Dy()),
				}
			} else {
				stillBad = append(stillBad, i)
			}
		}
	}

	// Phase 3: fallback engine for pages still bad after the rerun, on a
	// fresh render at the rerun DPI.
	var fallbackPages []int
	if len(stillBad) > 0 {
		for _, i := range stillBad {
			img, rerr := render.Render(pdfBytes, i, opts.DPIRerun)
			var blocks []model.Block
			var pageWidth, pageHeight float64
			if rerr == nil {
				blocks, _ = fallback.OCR(ctx, img, opts.Language)
				bounds := img.Bounds()
				pageWidth, pageHeight = float64(bounds.Dx()), float64(bounds.Dy())
			}

			fallbackPages = append(fallbackPages, i)
			outcomes[i] = &pageOutcome{
				pageNum: i, blocks: blocks, method: "tesseract", dpiUsed: opts.DPIRerun, neededRerun: true, usedFallback: true,
				pageWidth: pageWidth, pageHeight: pageHeight,
			}
		}
	}

	pages := make([]model.Page, pageCount)
	for i, oc := range outcomes {
		if oc == nil {
			oc = &pageOutcome{pageNum: i, method: "paddle", dpiUsed: opts.DPIInitial}
		}
		pages[i] = normalize.NormalizePage(i+1, oc.blocks, oc.pageWidth, oc.pageHeight, true)
	}

	engineName, engineVersion, method := determineEngine(fallbackPages, pageCount, primary, fallback)

	var dpiRerunPtr *int
	if len(badPages) > 0 {
		v := opts.DPIRerun
		dpiRerunPtr = &v
	}

	result := normalize.BuildResult(pages, normalize.BuildResultOptions{
		Engine:          engineName,
		EngineVersion:   engineVersion,
		PipelineVersion: opts.PipelineVersion,
		Method:          method,
		RuntimeMs:       time.Since(start).Milliseconds(),
		DPIInitial:      intPtr(opts.DPIInitial),
		DPIRerun:        dpiRerunPtr,
		BadPages:        badPages,
		FallbackPages:   fallbackPages,
		FilterDocText:   true,
	})

	return result, nil
}

// pageQualityOK adapts quality.PageOK to raw blocks instead of a built Page.
func pageQualityOK(blocks []model.Block, opts Options) bool {
	return quality.PageOK(model.Page{Blocks: blocks}, opts.MinCharsPerPage, opts.MinConfidence)
}

// determineEngine labels the overall Result by how many pages needed the
// fallback engine: none -> "paddle", every page -> "tesseract", otherwise
// "hybrid" with a combined version string.
func determineEngine(fallbackPages []int, pageCount int, primary, fallback ocr.Engine) (engine, engineVersion, method string) {
	switch {
	case len(fallbackPages) == 0:
		return "paddle", primary.Version(), "paddle"
	case len(fallbackPages) == pageCount:
		return "tesseract", fallback.Version(), "tesseract"
	default:
		return "hybrid", fmt.Sprintf("paddle%s+tess%s", primary.Version(), fallback.Version()), "hybrid"
	}
}

func intPtr(v int) *int {
	return &v
}
