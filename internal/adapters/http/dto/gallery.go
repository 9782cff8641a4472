package dto

import (
	"time"

	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// ViewQuery selects and orders the visible list.
type ViewQuery struct {
	Group   string  `form:"group"`
	Sort    string  `form:"sort"    validate:"omitempty,sortmode"`
	Seed    *uint64 `form:"seed"`
	Grouped *bool   `form:"grouped"`
}

// ToRequest converts the query to an app.ViewRequest.
func (q ViewQuery) ToRequest() app.ViewRequest {
	return app.ViewRequest{
		Group:   q.Group,
		Sort:    q.Sort,
		Seed:    q.Seed,
		Grouped: q.Grouped,
	}
}

// GalleryQuery is a ViewQuery plus column sizing.
type GalleryQuery struct {
	ViewQuery

	Columns int      `form:"columns" validate:"omitempty,min=1,max=12"`
	Width   int      `form:"width"   validate:"omitempty,min=1"`
	Gap     *float64 `form:"gap"     validate:"omitempty,min=0"`
}

// ToRequest converts the query to an app.LayoutRequest.
func (q GalleryQuery) ToRequest() app.LayoutRequest {
	return app.LayoutRequest{
		ViewRequest: q.ViewQuery.ToRequest(),
		Columns:     q.Columns,
		Width:       q.Width,
		Gap:         q.Gap,
	}
}

// QuotesQuery is a ViewQuery plus pagination.
type QuotesQuery struct {
	ViewQuery
	PaginationRequest
}

// QuoteResponse is a quote together with its collection index, which
// addresses it in /quotes/:index.
type QuoteResponse struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Year     int    `json:"year"`
	URL      string `json:"url"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Group    string `json:"group"`
	Priority string `json:"priority,omitempty"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(index int, q domain.Quote) QuoteResponse {
	return QuoteResponse{
		Index:    index,
		Text:     q.Text,
		Author:   q.Author,
		Year:     q.Year,
		URL:      q.URL,
		Bio:      q.Bio,
		Image:    q.Image,
		Group:    q.Group,
		Priority: q.Priority,
	}
}

// NewQuoteResponses converts view entries.
func NewQuoteResponses(entries []app.Entry) []QuoteResponse {
	out := make([]QuoteResponse, len(entries))
	for i, e := range entries {
		out[i] = NewQuoteResponse(e.Index, e.Quote)
	}

	return out
}

// ColumnResponse is one masonry column.
type ColumnResponse struct {
	Height float64         `json:"height"`
	Quotes []QuoteResponse `json:"quotes"`
}

// GalleryResponse is the arranged gallery.
type GalleryResponse struct {
	Groups    []string         `json:"groups"`
	Group     string           `json:"group"`
	Sort      string           `json:"sort"`
	SortLabel string           `json:"sortLabel"`
	Grouped   bool             `json:"grouped"`
	Gap       float64          `json:"gap"`
	Total     int              `json:"total"`
	Columns   []ColumnResponse `json:"columns"`
}

// NewGalleryResponse converts a layout. Placements point into the view's
// entries, which carry the collection index.
func NewGalleryResponse(l app.Layout) GalleryResponse {
	columns := make([]ColumnResponse, len(l.Arrangement.Columns))
	for i, col := range l.Arrangement.Columns {
		quotes := make([]QuoteResponse, len(col))
		for j, p := range col {
			quotes[j] = NewQuoteResponse(l.Entries[p.Index].Index, p.Quote)
		}
		columns[i] = ColumnResponse{Height: l.Arrangement.Heights[i], Quotes: quotes}
	}

	return GalleryResponse{
		Groups:    l.Groups,
		Group:     l.Group,
		Sort:      string(l.Sort),
		SortLabel: l.Sort.Label(),
		Grouped:   l.Grouped,
		Gap:       l.Gap,
		Total:     len(l.Entries),
		Columns:   columns,
	}
}

// GroupsResponse lists the group filters.
type GroupsResponse struct {
	Groups []string `json:"groups"`
}

// FeaturedResponse is the carousel state.
type FeaturedResponse struct {
	Index  int            `json:"index"`
	Target int            `json:"target"`
	Fading bool           `json:"fading"`
	Total  int            `json:"total"`
	Quote  *QuoteResponse `json:"quote,omitempty"`
}

// NewFeaturedResponse converts the carousel state. The carousel runs over
// the collection in source order, so its index is the collection index.
func NewFeaturedResponse(f app.Featured) FeaturedResponse {
	resp := FeaturedResponse{
		Index:  f.Index,
		Target: f.Target,
		Fading: f.Fading,
		Total:  f.Len,
	}
	if f.Active {
		q := NewQuoteResponse(f.Index, f.Quote)
		resp.Quote = &q
	}

	return resp
}

// CollectionResponse describes the loaded collection.
type CollectionResponse struct {
	Loaded   bool       `json:"loaded"`
	Quotes   int        `json:"quotes"`
	Dropped  int        `json:"dropped"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
}

// NewCollectionResponse converts a load status.
func NewCollectionResponse(s app.Status) CollectionResponse {
	resp := CollectionResponse{Loaded: s.Loaded, Quotes: s.Quotes, Dropped: s.Dropped}
	if s.Loaded {
		at := s.LoadedAt
		resp.LoadedAt = &at
	}

	return resp
}

// ThemeRequest sets the theme explicitly.
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,theme"`
}

// ThemeResponse is the effective theme.
type ThemeResponse struct {
	Theme string `json:"theme"`
}
