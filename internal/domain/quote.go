// Package domain contains core business entities and rules.
package domain

import "strings"

const (
	// GroupAll selects every group when used as a filter.
	GroupAll = "All"

	// GroupUncategorized is assigned to quotes without a usable group label.
	GroupUncategorized = "Uncategorized"
)

// Quote is a validated quotation. Values are never mutated after the
// loader produces them; derived views copy the struct, not a pointer.
type Quote struct {
	Text     string
	Author   string
	Year     int
	URL      string
	Bio      string
	Image    string
	Group    string
	Priority string
}

// HasPriority reports whether the record carried a priority value at all.
func (q Quote) HasPriority() bool {
	return q.Priority != ""
}

// RawQuote is a record as delivered by a record source, before validation.
// Year is nil when the source value was absent or not numeric.
type RawQuote struct {
	Text     string
	Author   string
	Year     *float64
	URL      string
	Bio      string
	Image    string
	Group    string
	Priority *string
}

// Priority levels, highest first.
const (
	PriorityVeryHigh = "Very high"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
	PriorityVeryLow  = "Very low"
)

// LowestPriorityRank is given to missing or unrecognised priorities.
const LowestPriorityRank = 5

var priorityRanks = map[string]int{
	PriorityVeryHigh: 1,
	PriorityHigh:     2,
	PriorityMedium:   3,
	PriorityLow:      4,
	PriorityVeryLow:  LowestPriorityRank,
}

// PriorityRank maps a priority label to its rank, 1 being most important.
// Matching is exact after trimming surrounding whitespace.
func PriorityRank(priority string) int {
	if rank, ok := priorityRanks[strings.TrimSpace(priority)]; ok {
		return rank
	}

	return LowestPriorityRank
}
