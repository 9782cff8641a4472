// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for anything that does I/O
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrUnavailable, ErrForbidden, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// RecordSource delivers the raw quote collection from a remote store.
// Adapters follow pagination themselves and hand back every record in
// source order, before any validation.
//
// Example usage in application layer:
//
//	type GalleryService struct {
//	    source ports.RecordSource
//	}
//
//	raw, err := s.source.ListQuotes(ctx)
type RecordSource interface {
	// Name identifies the source in logs and load errors.
	Name() string

	// ListQuotes fetches all records.
	// Returns domain.ErrUnavailable if the store is unreachable and
	// domain.ErrForbidden if the credentials are rejected.
	ListQuotes(ctx context.Context) ([]domain.RawQuote, error)
}

// PreferenceStore is a tiny synchronous key/value store for user
// preferences such as the theme. Implementations include file, memory and
// cookie backed stores.
type PreferenceStore interface {
	// Get returns the stored value and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string) error
}
