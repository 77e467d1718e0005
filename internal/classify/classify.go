/**
 * Block Classifier: assigns a semantic role to a Block from its text and
 * (optional) normalised position on the page.
 */

package classify

import (
	"regexp"
	"strings"

	"github.com/adverant/flashread-worker/internal/model"
)

// Position thresholds (fractions of page dimensions), fixed at their
// default values.
const (
	headerZoneY        = 0.08
	footerZoneY        = 0.92
	footnoteZoneYStart = 0.80
	footnoteZoneYEnd   = 0.92
	centeredTolerance  = 0.15
	narrowWidthRatio   = 0.5
	runningHeaderMax   = 80
)

var (
	pageNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^-?\s*\d{1,4}\s*-?$`),
		regexp.MustCompile(`(?i)^Page\s+\d{1,4}$`),
		regexp.MustCompile(`^\[\s*\d{1,4}\s*\]$`),
		regexp.MustCompile(`^\(\s*\d{1,4}\s*\)$`),
	}

	captionPattern = regexp.MustCompile(`(?i)^(Figure|Fig\.|Table|Tbl\.|Chart|Graph|Exhibit|Plate|Diagram)\s*\d+`)

	sectionHeaderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(Abstract|Introduction|Methods?|Methodology|Results?|Discussion|Conclusion|References|Bibliography|Acknowledgments?)$`),
		regexp.MustCompile(`^\d+\.?\s+[A-Z]`),
		regexp.MustCompile(`^[IVXLCDM]+\.?\s+[A-Z]`),
	}

	footnoteMarker = regexp.MustCompile(`^([\x{00B9}\x{00B2}\x{00B3}\x{2070}\x{2074}-\x{2079}]|\[\d+\]|[†‡§*])\s`)
	leadingDigit   = regexp.MustCompile(`^\d`)
)

// Position is the normalised location of a block on its page.
type Position struct {
	YStart, YEnd, XCenter, WidthRatio float64
	Known                             bool
}

// ComputePosition derives a Block's normalised position from its bbox and
// the page's pixel dimensions. Known is false when bbox, pageWidth, or
// pageHeight are unavailable.
func ComputePosition(bbox *model.BBox, pageWidth, pageHeight float64) Position {
	if bbox == nil || pageWidth <= 0 || pageHeight <= 0 {
		return Position{}
	}
	return Position{
		YStart:     bbox.Y / pageHeight,
		YEnd:       (bbox.Y + bbox.H) / pageHeight,
		XCenter:    (bbox.X + bbox.W/2) / pageWidth,
		WidthRatio: bbox.W / pageWidth,
		Known:      true,
	}
}

// Classify decides a Block's role from its trimmed text and, if known,
// its normalised position. First match wins.
func Classify(text string, pos Position) model.BlockType {
	trimmed := strings.TrimSpace(text)

	// 1. Empty/whitespace.
	if trimmed == "" {
		return model.BlockOther
	}

	// 2. Content patterns.
	if len(trimmed) <= 20 && matchesAny(pageNumberPatterns, trimmed) {
		return model.BlockPageNumber
	}
	if captionPattern.MatchString(trimmed) {
		return model.BlockCaption
	}
	if len(trimmed) <= 100 && matchesAny(sectionHeaderPatterns, trimmed) {
		return model.BlockSectionHeader
	}
	if footnoteMarker.MatchString(trimmed) {
		return model.BlockFootnote
	}

	// 3. Position tests (only if bbox and page dims are known).
	if pos.Known {
		if pos.YStart < headerZoneY && len(trimmed) < runningHeaderMax {
			return model.BlockHeader
		}
		if pos.YEnd > footerZoneY {
			if len(trimmed) < 30 && matchesAny(pageNumberPatterns, trimmed) {
				return model.BlockPageNumber
			}
			if len(trimmed) < runningHeaderMax {
				return model.BlockHeader
			}
		}
		if pos.YStart > footnoteZoneYStart && pos.YEnd < footnoteZoneYEnd {
			if footnoteMarker.MatchString(trimmed) || leadingDigit.MatchString(trimmed) {
				return model.BlockFootnote
			}
		}
	}

	// 4. Centered narrow text.
	if pos.Known &&
		abs(pos.XCenter-0.5) < centeredTolerance &&
		pos.WidthRatio < narrowWidthRatio &&
		len(trimmed) < 60 {
		return model.BlockSectionHeader
	}

	// 5. Otherwise.
	return model.BlockParagraph
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
