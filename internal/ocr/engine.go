/**
 * OCR engine contract: both backends the Router escalates through satisfy
 * this interface.
 */

package ocr

import (
	"context"
	"image"

	"github.com/adverant/flashread-worker/internal/model"
)

// Engine recognises text (and, where the backend supports it, block
// layout) from a single rendered page image.
type Engine interface {
	// OCR returns one Block per detected text region. A backend that
	// cannot localise blocks may return a single Block spanning the page.
	// language is a job-supplied language hint (e.g. "eng"); a backend
	// that doesn't support per-call language selection may ignore it.
	OCR(ctx context.Context, img image.Image, language string) ([]model.Block, error)

	// Version identifies the backend's model/binary version, used to
	// build a Result's version key.
	Version() string
}
