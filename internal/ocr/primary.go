/**
 * Primary OCR engine: a thin HTTP client against a PaddleOCR-compatible
 * recognition service. Polygon detections are converted to
 * axis-aligned bounding boxes since the rest of the pipeline only reasons
 * about rectangles. Engine-internal failures are swallowed to
 * an empty block list rather than propagated, so the Router can treat a
 * bad page the same way whether the engine errored or simply found
 * nothing.
 */

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/adverant/flashread-worker/internal/model"
)

// PrimaryEngine talks to a PaddleOCR-compatible HTTP recognition endpoint.
type PrimaryEngine struct {
	baseURL    string
	httpClient *http.Client
	version    string
}

// NewPrimaryEngine constructs a PrimaryEngine against baseURL.
func NewPrimaryEngine(baseURL string) *PrimaryEngine {
	return &PrimaryEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		version: "paddleocr-http",
	}
}

type ocrRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
}

type ocrResponse struct {
	Success bool           `json:"success"`
	Blocks  []paddleBlock  `json:"blocks"`
	Message string         `json:"message"`
}

type paddleBlock struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Polygon    [][2]float64 `json:"polygon"`
}

// OCR sends img to the configured endpoint and converts the response's
// polygon detections into axis-aligned Blocks. Any failure — network,
// non-2xx status, malformed body — is swallowed and reported as no
// blocks found. Nothing is retried here; the Router escalates instead.
func (e *PrimaryEngine) OCR(ctx context.Context, img image.Image, language string) ([]model.Block, error) {
	payload, err := encodePNG(img)
	if err != nil {
		return nil, nil
	}

	reqBody, err := json.Marshal(ocrRequest{
		Image:    base64.StdEncoding.EncodeToString(payload),
		Language: language,
	})
	if err != nil {
		return nil, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil
	}
	if !parsed.Success {
		return nil, nil
	}

	blocks := make([]model.Block, 0, len(parsed.Blocks))
	for _, pb := range parsed.Blocks {
		conf := clamp01(pb.Confidence)
		blocks = append(blocks, model.Block{
			Text:       pb.Text,
			Confidence: &conf,
			BBox:       polygonToBBox(pb.Polygon),
		})
	}

	return blocks, nil
}

// Version reports the backend identifier used in generated version keys.
func (e *PrimaryEngine) Version() string {
	return e.version
}

// polygonToBBox reduces an arbitrary polygon to its axis-aligned bounding
// rectangle by taking the min/max of its vertices. Returns nil for an
// empty polygon.
func polygonToBBox(polygon [][2]float64) *model.BBox {
	if len(polygon) == 0 {
		return nil
	}

	minX, minY := polygon[0][0], polygon[0][1]
	maxX, maxY := polygon[0][0], polygon[0][1]
	for _, pt := range polygon[1:] {
		if pt[0] < minX {
			minX = pt[0]
		}
		if pt[0] > maxX {
			maxX = pt[0]
		}
		if pt[1] < minY {
			minY = pt[1]
		}
		if pt[1] > maxY {
			maxY = pt[1]
		}
	}

	return &model.BBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
