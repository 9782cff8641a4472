package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// Cursor errors.
var (
	// ErrInvalidCursor is returned when cursor decoding fails.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor indicates no cursor was provided (first page request).
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// DecodeCursor decodes the cursor string into CursorData.
// Returns ErrNoCursor if cursor is empty (first page request).
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	return DecodeCursor(p.Cursor)
}

// CursorData is the position in a visible list. The list is derived again
// for every page, so the cursor carries the shuffle seed that produced the
// first page; sorted modes ignore it.
type CursorData struct {
	Offset int    `json:"o"`
	Seed   uint64 `json:"s"`
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	// Items is the array of items for this page.
	Items []T `json:"items"`

	// NextCursor is the cursor to use for the next page.
	// Empty if there are no more items.
	NextCursor string `json:"nextCursor,omitempty"`

	// HasMore indicates whether there are more items after this page.
	HasMore bool `json:"hasMore"`

	// Total is the length of the whole list.
	Total int `json:"total"`
}

// Paginate slices all at offset and builds the cursor for the page after.
// An offset past the end yields an empty page.
func Paginate[T any](all []T, offset, limit int, seed uint64) *PaginatedResponse[T] {
	offset = max(offset, 0)
	if offset > len(all) {
		offset = len(all)
	}

	end := min(offset+limit, len(all))
	items := all[offset:end]
	if items == nil {
		items = []T{}
	}

	resp := &PaginatedResponse[T]{
		Items:   items,
		HasMore: end < len(all),
		Total:   len(all),
	}
	if resp.HasMore {
		resp.NextCursor = EncodeCursor(&CursorData{Offset: end, Seed: seed})
	}

	return resp
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data.
// Returns ErrNoCursor if the encoded string is empty.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	jsonBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData

	err = json.Unmarshal(jsonBytes, &data)
	if err != nil || data.Offset < 0 {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
