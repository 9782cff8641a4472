package gallery

import (
	"unicode/utf8"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// Card geometry used by the height estimate. The values approximate the
// rendered card in pixels; only their relative size matters for packing.
const (
	cardHeaderHeight = 96.0
	textLineHeight   = 28.0
	bioLineHeight    = 20.0

	textCharsPerLine = 40
	bioCharsPerLine  = 50
	maxBioLines      = 3
)

// EstimateHeight returns the estimated rendered height of a quote card.
// It depends only on text and bio length and never decreases as either grows.
func EstimateHeight(q domain.Quote) float64 {
	textLines := lines(utf8.RuneCountInString(q.Text), textCharsPerLine)
	bioLines := min(maxBioLines, lines(utf8.RuneCountInString(q.Bio), bioCharsPerLine))

	return cardHeaderHeight + textLineHeight*float64(textLines) + bioLineHeight*float64(bioLines)
}

// lines is ceil(n/perLine) for non-negative n.
func lines(n, perLine int) int {
	return (n + perLine - 1) / perLine
}
