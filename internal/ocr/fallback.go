/**
 * Fallback OCR engine: Tesseract via gosseract, escalated to when the
 * primary engine's output is still insufficient after a high-DPI rerun.
 */

package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/flashread-worker/internal/model"
)

// FallbackEngine wraps a local Tesseract install through gosseract,
// recognizing per-line blocks via Tesseract's line-level bounding boxes
// rather than whole-page text.
type FallbackEngine struct {
	defaultLanguage string
	version         string
}

// NewFallbackEngine constructs a FallbackEngine whose default Tesseract
// language code (e.g. "eng") is used when OCR is called with an empty
// language.
func NewFallbackEngine(defaultLanguage string) *FallbackEngine {
	return &FallbackEngine{defaultLanguage: defaultLanguage, version: "tesseract-5"}
}

// OCR recognises img line by line. Lines with negative confidence or no
// text are discarded. If bounding-box extraction fails outright, OCR
// retries in whole-page mode and returns a single block with no bbox and
// no confidence rather than failing the page entirely.
func (e *FallbackEngine) OCR(ctx context.Context, img image.Image, language string) ([]model.Block, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil
	}
	imgBytes := buf.Bytes()

	client := gosseract.NewClient()
	defer client.Close()

	lang := language
	if lang == "" {
		lang = e.defaultLanguage
	}
	if lang != "" {
		_ = client.SetLanguage(lang)
	}
	if err := client.SetImageFromBytes(imgBytes); err != nil {
		return nil, nil
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		return e.wholePageFallback(client)
	}

	blocks := make([]model.Block, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		conf := box.Confidence / 100.0
		if conf < 0 {
			continue
		}
		blocks = append(blocks, model.Block{
			Text:       box.Word,
			Confidence: &conf,
			BBox: &model.BBox{
				X: float64(box.Box.Min.X),
				Y: float64(box.Box.Min.Y),
				W: float64(box.Box.Max.X - box.Box.Min.X),
				H: float64(box.Box.Max.Y - box.Box.Min.Y),
			},
		})
	}

	return blocks, nil
}

// wholePageFallback retries in whole-page text mode when line-level
// bounding-box extraction fails, producing at most one block.
func (e *FallbackEngine) wholePageFallback(client *gosseract.Client) ([]model.Block, error) {
	text, err := client.Text()
	if err != nil || text == "" {
		return nil, nil
	}
	return []model.Block{{Text: text}}, nil
}

// Version reports the backend identifier used in generated version keys.
func (e *FallbackEngine) Version() string {
	return e.version
}
