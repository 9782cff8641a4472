package gallery

// DefaultGap is the spacing between cards, in pixels.
const DefaultGap = 32.0

// PixelBreakpoints are the viewport widths at which the web gallery gains a
// column: below 768 one column, below 1024 two, otherwise three.
var PixelBreakpoints = []int{768, 1024}

// ColumnsForWidth maps a viewport width to a column count: one column plus
// one for every ascending breakpoint the width reaches.
func ColumnsForWidth(width int, breakpoints []int) int {
	columns := 1

	for _, bp := range breakpoints {
		if width < bp {
			break
		}

		columns++
	}

	return columns
}
