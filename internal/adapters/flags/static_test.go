package flags

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

var _ ports.FeatureFlags = (*Static)(nil)

func TestStatic_IsEnabled(t *testing.T) {
	f := NewStatic(map[string]string{
		"grouped-display": "0",
		"GROUPED_CARDS":   " true ",
		"broken":          "sometimes",
	})
	ctx := context.Background()

	tests := []struct {
		flag     string
		fallback bool
		want     bool
	}{
		{ports.FlagGroupedDisplay, true, false},
		{"grouped-cards", false, true},
		{"Grouped_Cards", false, true},
		{"missing", true, true},
		{"missing", false, false},
		{"broken", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsEnabled(ctx, tt.flag, tt.fallback))
		})
	}
}

func TestStatic_InvalidBoolIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	NewStatic(map[string]string{"grouped-display": "maybe"}).IsEnabled(ctx, ports.FlagGroupedDisplay, true)

	assert.Contains(t, buf.String(), "feature flag is not a boolean")
	assert.Contains(t, buf.String(), "value=maybe")
}

func TestStatic_GetString(t *testing.T) {
	f := NewStatic(map[string]string{"default_sort": "priority", "empty": ""})
	ctx := context.Background()

	assert.Equal(t, "priority", f.GetString(ctx, ports.FlagDefaultSort, "shuffle"))
	assert.Equal(t, "shuffle", f.GetString(ctx, "empty", "shuffle"))
	assert.Equal(t, "asc", f.GetString(ctx, "unknown", "asc"))
}

func TestStatic_SnapshotIsCopy(t *testing.T) {
	f := NewStatic(map[string]string{"A_B": "1"})

	snap := f.Snapshot()
	assert.Equal(t, map[string]string{"a-b": "1"}, snap)

	snap["a-b"] = "0"
	assert.True(t, f.IsEnabled(context.Background(), "a-b", false))
}

func TestStatic_NilMap(t *testing.T) {
	f := NewStatic(nil)

	assert.True(t, f.IsEnabled(context.Background(), "anything", true))
}
