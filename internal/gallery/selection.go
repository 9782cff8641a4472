package gallery

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// SortMode orders the visible list.
type SortMode string

// Supported sort modes.
const (
	SortShuffle    SortMode = "shuffle"
	SortAscending  SortMode = "asc"
	SortDescending SortMode = "desc"
	SortPriority   SortMode = "priority"
)

// SortModes lists every mode in display order.
var SortModes = []SortMode{SortShuffle, SortAscending, SortDescending, SortPriority}

// ParseSortMode accepts a mode name case-insensitively, plus the aliases
// "none" and "random" for shuffle.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SortShuffle), "none", "random":
		return SortShuffle, nil
	case string(SortAscending), "ascending", "oldest":
		return SortAscending, nil
	case string(SortDescending), "descending", "newest":
		return SortDescending, nil
	case string(SortPriority):
		return SortPriority, nil
	default:
		return "", domain.NewValidationErrorWithValue("sort", "must be one of shuffle, asc, desc, priority", s)
	}
}

// Next cycles through SortModes.
func (m SortMode) Next() SortMode {
	i := slices.Index(SortModes, m)
	return SortModes[(i+1)%len(SortModes)]
}

// Label is a short human readable name.
func (m SortMode) Label() string {
	switch m {
	case SortAscending:
		return "Oldest first"
	case SortDescending:
		return "Newest first"
	case SortPriority:
		return "By priority"
	default:
		return "Shuffled"
	}
}

// Selection holds the full collection plus the active group filter and sort
// mode, and derives the visible list from them. It is owned by a single
// caller and is not safe for concurrent use.
type Selection struct {
	all     []entry
	groups  []string
	filter  string
	mode    SortMode
	grouped bool
	rng     *rand.Rand
	visible []entry
}

// entry tags a quote with its position in the collection, so identical
// records stay distinguishable after sorting.
type entry struct {
	index int
	quote domain.Quote
}

// Option configures a Selection.
type Option func(*Selection)

// WithGrouping toggles grouped display for the "All" filter.
func WithGrouping(enabled bool) Option {
	return func(s *Selection) { s.grouped = enabled }
}

// WithSortMode sets the initial sort mode.
func WithSortMode(mode SortMode) Option {
	return func(s *Selection) { s.mode = mode }
}

// WithGroupFilter sets the initial group filter.
func WithGroupFilter(group string) Option {
	return func(s *Selection) { s.filter = group }
}

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Selection) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed shuffles deterministically from seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewSelection builds the state for quotes. Defaults: filter "All",
// shuffle, grouped display on.
func NewSelection(quotes []domain.Quote, opts ...Option) *Selection {
	s := &Selection{
		filter:  domain.GroupAll,
		mode:    SortShuffle,
		grouped: true,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // display order only
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filter == "" {
		s.filter = domain.GroupAll
	}

	s.Reset(quotes)

	return s
}

// Reset replaces the collection wholesale, keeping filter and sort mode.
func (s *Selection) Reset(quotes []domain.Quote) {
	s.all = make([]entry, len(quotes))
	for i, q := range quotes {
		s.all[i] = entry{index: i, quote: q}
	}

	s.groups = distinctGroups(quotes)
	s.recompute()
}

// SetGroupFilter selects "All" or a single canonical group. A group with no
// quotes yields an empty visible list.
func (s *Selection) SetGroupFilter(group string) {
	if group == "" {
		group = domain.GroupAll
	}

	s.filter = group
	s.recompute()
}

// SetSortMode changes the sort mode and re-derives the visible list.
// Selecting shuffle again draws a fresh permutation.
func (s *Selection) SetSortMode(mode SortMode) {
	s.mode = mode
	s.recompute()
}

// Visible returns a copy of the derived list.
func (s *Selection) Visible() []domain.Quote {
	out := make([]domain.Quote, len(s.visible))
	for i, e := range s.visible {
		out[i] = e.quote
	}

	return out
}

// VisibleIndices returns, for each entry of Visible, its position in the
// collection passed to NewSelection or Reset.
func (s *Selection) VisibleIndices() []int {
	out := make([]int, len(s.visible))
	for i, e := range s.visible {
		out[i] = e.index
	}

	return out
}

// AvailableGroups is "All" followed by each canonical group, alphabetically.
func (s *Selection) AvailableGroups() []string {
	out := make([]string, 0, len(s.groups)+1)
	out = append(out, domain.GroupAll)

	return append(out, s.groups...)
}

// GroupFilter returns the active filter.
func (s *Selection) GroupFilter() string { return s.filter }

// SortMode returns the active sort mode.
func (s *Selection) SortMode() SortMode { return s.mode }

// Grouped reports whether grouped display is enabled.
func (s *Selection) Grouped() bool { return s.grouped }

// CycleGroup moves the filter to the next entry of AvailableGroups.
func (s *Selection) CycleGroup() {
	groups := s.AvailableGroups()
	i := slices.Index(groups, s.filter)
	s.SetGroupFilter(groups[(i+1)%len(groups)])
}

func (s *Selection) recompute() {
	if s.filter == domain.GroupAll {
		if s.grouped {
			s.visible = s.groupThenSort()
			return
		}

		s.visible = s.order(slices.Clone(s.all))

		return
	}

	filtered := make([]entry, 0, len(s.all))
	for _, e := range s.all {
		if e.quote.Group == s.filter {
			filtered = append(filtered, e)
		}
	}

	s.visible = s.order(filtered)
}

// groupThenSort partitions by group, orders each partition with the active
// mode and concatenates partitions alphabetically.
func (s *Selection) groupThenSort() []entry {
	buckets := make(map[string][]entry, len(s.groups))
	for _, e := range s.all {
		buckets[e.quote.Group] = append(buckets[e.quote.Group], e)
	}

	out := make([]entry, 0, len(s.all))
	for _, g := range s.groups {
		out = append(out, s.order(buckets[g])...)
	}

	return out
}

// order sorts items in place. Year and priority sorts are stable against
// load order.
func (s *Selection) order(items []entry) []entry {
	switch s.mode {
	case SortAscending:
		slices.SortStableFunc(items, func(a, b entry) int { return cmp.Compare(a.quote.Year, b.quote.Year) })
	case SortDescending:
		slices.SortStableFunc(items, func(a, b entry) int { return cmp.Compare(b.quote.Year, a.quote.Year) })
	case SortPriority:
		slices.SortStableFunc(items, func(a, b entry) int {
			return cmp.Compare(domain.PriorityRank(a.quote.Priority), domain.PriorityRank(b.quote.Priority))
		})
	default:
		s.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}

	return items
}

func distinctGroups(quotes []domain.Quote) []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)

	for _, q := range quotes {
		if _, ok := seen[q.Group]; ok {
			continue
		}

		seen[q.Group] = struct{}{}
		groups = append(groups, q.Group)
	}

	slices.Sort(groups)

	return groups
}
