package gallery

import (
	"fmt"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// Placement is one card in a column: the quote and its index in the list
// that was arranged.
type Placement struct {
	Index int
	Quote domain.Quote
}

// Arrangement partitions an ordered list into columns.
// Heights[i] is the estimated height of Columns[i] including gaps.
type Arrangement struct {
	Columns [][]Placement
	Heights []float64
}

// Estimator returns the estimated rendered height of a card.
type Estimator func(domain.Quote) float64

// Arrange distributes items over columnCount columns using EstimateHeight.
// See ArrangeWith.
func Arrange(items []domain.Quote, columnCount int, gap float64) Arrangement {
	return ArrangeWith(items, columnCount, gap, EstimateHeight)
}

// ArrangeWith packs items greedily: walking the input once, each item goes to
// the currently shortest column (leftmost on ties) and that column grows by
// the item's estimate plus gap. Input order is never changed, so every
// column is a subsequence of items.
//
// A columnCount below 1 is a caller bug and panics.
func ArrangeWith(items []domain.Quote, columnCount int, gap float64, estimate Estimator) Arrangement {
	if columnCount < 1 {
		panic(fmt.Sprintf("gallery: column count must be at least 1, got %d", columnCount))
	}

	if estimate == nil {
		estimate = EstimateHeight
	}

	arr := Arrangement{
		Columns: make([][]Placement, columnCount),
		Heights: make([]float64, columnCount),
	}
	for i := range arr.Columns {
		arr.Columns[i] = []Placement{}
	}

	for i, q := range items {
		col := shortestColumn(arr.Heights)
		arr.Columns[col] = append(arr.Columns[col], Placement{Index: i, Quote: q})
		arr.Heights[col] += estimate(q) + gap
	}

	return arr
}

func shortestColumn(heights []float64) int {
	best := 0
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[best] {
			best = i
		}
	}

	return best
}

// Len returns the number of placed items across all columns.
func (a Arrangement) Len() int {
	n := 0
	for _, col := range a.Columns {
		n += len(col)
	}

	return n
}
