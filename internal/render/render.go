/**
 * Page Renderer: rasterises a PDF page to an RGB pixel grid at a requested
 * DPI. Backed by MuPDF bindings, the natural Go analogue of PyMuPDF.
 */

package render

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// InvalidPageError is returned when the requested page index is out of range.
type InvalidPageError struct {
	Index int
	Pages int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid page index %d: document has %d pages", e.Index, e.Pages)
}

// PageCount returns the number of pages in the PDF.
func PageCount(pdfBytes []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return 0, fmt.Errorf("cannot open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// Render rasterises the page at pageIndex (0-based) to an RGB image at the
// given DPI. Width and height derive from the page's native point
// dimensions scaled by dpi/72 — go-fitz computes this internally from the
// DPI it is given. The document handle is released on every exit path.
func Render(pdfBytes []byte, pageIndex int, dpi int) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if pageIndex < 0 || pageIndex >= numPages {
		return nil, &InvalidPageError{Index: pageIndex, Pages: numPages}
	}

	img, err := doc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to rasterise page %d at %d DPI: %w", pageIndex, dpi, err)
	}

	return img, nil
}
