package ports

import (
	"context"
)

// Flag names understood by the gallery.
const (
	// FlagGroupedDisplay switches between grouped and flat display for "All".
	FlagGroupedDisplay = "grouped-display"

	// FlagDefaultSort names the sort mode a fresh selection starts with.
	FlagDefaultSort = "default-sort"
)

// FeatureFlags defines the contract for feature flag evaluation.
// This port allows the application to check feature enablement without
// knowing the underlying provider.
//
// Always pass a default: it is returned when the flag is unknown, so the
// application degrades to its configured behaviour.
//
//	grouped := flags.IsEnabled(ctx, ports.FlagGroupedDisplay, cfg.Grouped)
type FeatureFlags interface {
	// IsEnabled checks if a boolean feature flag is enabled.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool

	// GetString retrieves a string feature flag value.
	GetString(ctx context.Context, flag string, defaultValue string) string
}
