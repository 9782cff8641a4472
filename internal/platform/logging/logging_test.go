package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/masq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{ReplaceAttr: NewReplaceAttr()}))
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))

	return entry
}

func TestFromContext(t *testing.T) {
	t.Run("nil context falls back to the default", func(t *testing.T) {
		//nolint:staticcheck // nil context is part of the contract
		assert.NotNil(t, FromContext(nil))
	})

	t.Run("empty context falls back to the default", func(t *testing.T) {
		assert.Same(t, defaultLogger.Load(), FromContext(context.Background()))
	})

	t.Run("stored logger is returned", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		assert.Same(t, logger, FromContext(WithContext(context.Background(), logger)))
	})
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), jsonLogger(&buf))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithTraceID(ctx, "trace-1")
	ctx = With(ctx, slog.String("source", "airtable"))

	FromContext(ctx).Info("records fetched", slog.Int("records", 12))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "airtable", entry["source"])
	assert.InDelta(t, 12, entry["records"], 0)
}

func TestSetDefault(t *testing.T) {
	original := defaultLogger.Load()
	t.Cleanup(func() { SetDefault(original) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetDefault(logger)

	assert.Same(t, logger, FromContext(context.Background()))
	assert.Same(t, logger, slog.Default())
}

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"json", func(t *testing.T, out string) {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
			assert.Equal(t, "collection loaded", entry["msg"])
			assert.Equal(t, "quote-gallery", entry["service_name"])
			assert.Equal(t, "1.2.3", entry["service_version"])
		}},
		{"text", func(t *testing.T, out string) {
			assert.Contains(t, out, `msg="collection loaded"`)
			assert.Contains(t, out, "service_name=quote-gallery")
		}},
		{"pretty", func(t *testing.T, out string) {
			assert.Contains(t, out, "collection loaded")
			assert.Contains(t, out, "quotes=4")
		}},
		{"unknown", func(t *testing.T, out string) {
			assert.True(t, json.Valid([]byte(strings.TrimSpace(out))), "unknown formats fall back to json")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&Config{Level: "info", Format: tt.format, Service: "quote-gallery", Version: "1.2.3"}, &buf)

			logger.Info("collection loaded", slog.Int("quotes", 4))

			tt.check(t, buf.String())
		})
	}
}

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level   string
		logged  []slog.Level
		dropped []slog.Level
	}{
		{"trace", []slog.Level{LevelTrace, slog.LevelDebug}, nil},
		{"debug", []slog.Level{slog.LevelDebug}, []slog.Level{LevelTrace}},
		{"info", []slog.Level{slog.LevelInfo}, []slog.Level{slog.LevelDebug}},
		{"warning", []slog.Level{slog.LevelWarn}, []slog.Level{slog.LevelInfo}},
		{"error", []slog.Level{slog.LevelError}, []slog.Level{slog.LevelWarn}},
		{"bogus", []slog.Level{slog.LevelInfo}, []slog.Level{slog.LevelDebug}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&Config{Level: tt.level, Format: "json"}, &buf)

			for _, l := range tt.logged {
				buf.Reset()
				logger.Log(context.Background(), l, "record dropped")
				assert.NotEmpty(t, buf.String(), "level %v", l)
			}
			for _, l := range tt.dropped {
				buf.Reset()
				logger.Log(context.Background(), l, "record dropped")
				assert.Empty(t, buf.String(), "level %v", l)
			}
		})
	}
}

func TestSlogToCharmLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(LevelTrace))
	assert.Equal(t, log.DebugLevel, slogToCharmLevel(slog.LevelDebug))
	assert.Equal(t, log.InfoLevel, slogToCharmLevel(slog.LevelInfo))
	assert.Equal(t, log.WarnLevel, slogToCharmLevel(slog.LevelWarn))
	assert.Equal(t, log.ErrorLevel, slogToCharmLevel(slog.LevelError))
}

func TestNewWithWriter_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotewall.log")

	logger := NewWithWriter(&Config{
		Level:  "debug",
		Format: "pretty",
		File:   FileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	}, io.Discard)

	logger.Debug("fetched page", slog.Int("page", 2), slog.String("api_key", "file-secret"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry), "the file is always json")
	assert.Equal(t, "fetched page", entry["msg"])
	assert.NotContains(t, string(data), "file-secret")
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, h.Enabled(context.Background(), LevelTrace))

	logger := slog.New(h).With(slog.String("component", "app.Loader")).WithGroup("load")
	logger.Debug("debug only", slog.Int("dropped", 1))
	logger.Info("both", slog.Int("quotes", 4))

	assert.Contains(t, debugBuf.String(), "debug only")
	assert.Contains(t, debugBuf.String(), "both")
	assert.NotContains(t, infoBuf.String(), "debug only")

	entry := lastEntry(t, &infoBuf)
	assert.Equal(t, "app.Loader", entry["component"])
	assert.Equal(t, map[string]any{"quotes": float64(4)}, entry["load"])
}

func TestRedaction(t *testing.T) {
	token := "patAbCdEfGh123456." + strings.Repeat("ab12", 16)

	tests := []struct {
		name   string
		attr   slog.Attr
		secret string
	}{
		{"api_key attribute", slog.String("api_key", "key-material"), "key-material"},
		{"authorization attribute", slog.String("authorization", "Bearer abc"), "Bearer abc"},
		{"bearer value under any name", slog.String("header", "Bearer xyz789"), "xyz789"},
		{"airtable token value", slog.String("key", token), token},
		{"secret prefix", slog.String("secret_value", "hunter2"), "hunter2"},
		{"source config struct", slog.Any("source", struct {
			BaseURL string
			APIKey  string
		}{BaseURL: "https://api.airtable.com", APIKey: "struct-secret"}), "struct-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			jsonLogger(&buf).Info("source configured", tt.attr)

			assert.NotContains(t, buf.String(), tt.secret)
			assert.Contains(t, buf.String(), "source configured")
		})
	}

	t.Run("non-secret values pass through", func(t *testing.T) {
		var buf bytes.Buffer
		jsonLogger(&buf).Info("source configured", slog.String("base_id", "appXYZ"), slog.String("table", "Quotes"))

		assert.Contains(t, buf.String(), "appXYZ")
		assert.Contains(t, buf.String(), "Quotes")
	})
}

func TestNewReplaceAttr_ExtraOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: NewReplaceAttr(masq.WithFieldName("bio")),
	}))

	logger.Info("quote", slog.String("bio", "private notes"), slog.String("author", "Rams"))

	assert.NotContains(t, buf.String(), "private notes")
	assert.Contains(t, buf.String(), "Rams")
}

func TestNewWithWriter_PrettyFormatRedacts(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: "info", Format: "pretty"}, &buf)

	logger.With(slog.String("api_key", "with-attr-secret")).Info("pretty", slog.String("password", "record-secret"))

	output := buf.String()
	assert.Contains(t, output, "pretty")
	assert.NotContains(t, output, "with-attr-secret")
	assert.NotContains(t, output, "record-secret")
}
