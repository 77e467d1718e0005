/**
 * Quality Oracle: decides whether a page or a document has enough text to
 * be considered done, or whether the pipeline should escalate.
 */

package quality

import (
	"strconv"
	"strings"
	"time"

	"github.com/adverant/flashread-worker/internal/model"
)

const (
	defaultPageMinChars  = 50
	defaultPageMinConf   = 0.6
	docAbsoluteMinChars  = 500
	docPerPageMinChars   = 50
	docNonWhitespaceFrac = 0.5
)

// PageOK reports whether a single page's blocks clear the per-page bar:
// at least one block, at least minChars characters, and — if any block
// carries a confidence value — an average confidence of at least minConf.
// A page with no confidence values at all (e.g. direct extraction) passes
// the confidence test vacuously.
func PageOK(page model.Page, minChars int, minConf float64) bool {
	if len(page.Blocks) == 0 {
		return false
	}

	charCount := 0
	var confSum float64
	var confCount int
	for _, b := range page.Blocks {
		charCount += len(b.Text)
		if b.Confidence != nil {
			confSum += *b.Confidence
			confCount++
		}
	}

	if charCount < minChars {
		return false
	}

	if confCount > 0 && confSum/float64(confCount) < minConf {
		return false
	}

	return true
}

// DefaultPageOK calls PageOK with the standard thresholds (50 characters,
// 0.6 average confidence).
func DefaultPageOK(page model.Page) bool {
	return PageOK(page, defaultPageMinChars, defaultPageMinConf)
}

// DocumentSufficient reports whether the combined document text is enough
// to stop processing: the character count must meet max(500, 50*pageCount),
// and the fraction of non-whitespace characters must exceed 0.5. Empty text
// is always insufficient.
func DocumentSufficient(text string, pageCount int) bool {
	if text == "" {
		return false
	}

	charCount := len(text)
	minChars := docAbsoluteMinChars
	if perPage := docPerPageMinChars * pageCount; perPage > minChars {
		minChars = perPage
	}

	if charCount < minChars {
		return false
	}

	stripped := strings.NewReplacer(" ", "", "\n", "", "\t", "", "\r", "").Replace(text)
	nonWSRatio := float64(len(stripped)) / float64(len(text))

	return nonWSRatio > docNonWhitespaceFrac
}

// GenerateVersionKey produces the deterministic key a Result is stored
// under: {engine}_{engine_version}_{pipeline_version}_{epoch millis}.
func GenerateVersionKey(engine, engineVersion, pipelineVersion string, at time.Time) string {
	return engine + "_" + engineVersion + "_" + pipelineVersion + "_" + strconv.FormatInt(at.UnixMilli(), 10)
}
