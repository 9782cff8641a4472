// Package flags provides a ports.FeatureFlags implementation backed by the
// static `flags` section of the configuration.
package flags

import (
	"context"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

// Static serves flags from a fixed map. Keys are matched case-insensitively
// and with "_" treated as "-", so APP_FLAGS_GROUPED_DISPLAY reaches
// "grouped-display".
type Static struct {
	values map[string]string
}

// NewStatic creates flags from config values. Booleans may be spelled any
// way strconv.ParseBool accepts; koanf turns YAML booleans into "1"/"0".
func NewStatic(values map[string]string) *Static {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = strings.TrimSpace(v)
	}

	return &Static{values: normalized}
}

// IsEnabled returns the flag as a bool, or defaultValue when it is unset or
// not a boolean.
func (s *Static) IsEnabled(ctx context.Context, flag string, defaultValue bool) bool {
	raw, ok := s.values[normalizeKey(flag)]
	if !ok {
		return defaultValue
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("feature flag is not a boolean",
			slog.String("flag", flag),
			slog.String("value", raw),
		)
		return defaultValue
	}

	return v
}

// GetString returns the flag value, or defaultValue when it is unset or empty.
func (s *Static) GetString(_ context.Context, flag string, defaultValue string) string {
	if v := s.values[normalizeKey(flag)]; v != "" {
		return v
	}

	return defaultValue
}

// Snapshot returns a copy of the normalised flag values.
func (s *Static) Snapshot() map[string]string {
	return maps.Clone(s.values)
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "-")
}
