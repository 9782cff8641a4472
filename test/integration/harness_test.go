//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/flags"
	httpadapter "github.com/jsamuelsen/quote-gallery/internal/adapters/http"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

const testAPIKey = "pat-integration"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAirtable serves a quote table the way the Airtable list endpoint
// does: pages of records chained by an offset token.
type fakeAirtable struct {
	server *httptest.Server

	mu         sync.Mutex
	records    []map[string]any
	pageSize   int
	failStatus int
	retryAfter string
	failTimes  int

	calls atomic.Int32

	// gate, when set, holds every request until it is closed.
	gate chan struct{}
}

func newFakeAirtable() *fakeAirtable {
	f := &fakeAirtable{pageSize: 2}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))

	return f
}

func (f *fakeAirtable) Close() { f.server.Close() }

// AddRecord appends a record by field name. Link and Bio are filled in when
// missing so that rows in tests only spell out what they are about.
func (f *fakeAirtable) AddRecord(fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := fields["Link"]; !ok {
		fields["Link"] = "https://example.com/" + strconv.Itoa(len(f.records))
	}
	if _, ok := fields["Bio"]; !ok {
		fields["Bio"] = "Bio " + strconv.Itoa(len(f.records))
	}

	f.records = append(f.records, fields)
}

// Fail makes the next n requests answer with status. A negative n fails
// every request.
func (f *fakeAirtable) Fail(status, n int, retryAfter string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failStatus, f.failTimes, f.retryAfter = status, n, retryAfter
}

func (f *fakeAirtable) Calls() int { return int(f.calls.Load()) }

func (f *fakeAirtable) serve(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if f.gate != nil {
		<-f.gate
	}

	if r.Header.Get("Authorization") != "Bearer "+testAPIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"type": "AUTHENTICATION_REQUIRED", "message": "Authentication required"},
		})
		return
	}

	f.mu.Lock()
	status, retryAfter := 0, f.retryAfter
	if f.failTimes != 0 {
		status = f.failStatus
		if f.failTimes > 0 {
			f.failTimes--
		}
	}
	records := f.records
	pageSize := f.pageSize
	f.mu.Unlock()

	if status != 0 {
		if retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		writeJSON(w, status, map[string]any{
			"error": map[string]string{"type": "SERVER_ERROR", "message": http.StatusText(status)},
		})
		return
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	end := min(start+pageSize, len(records))

	page := make([]map[string]any, 0, end-start)
	for i := start; i < end; i++ {
		page = append(page, map[string]any{"id": "rec" + strconv.Itoa(i), "fields": records[i]})
	}

	body := map[string]any{"records": page}
	if end < len(records) {
		body["offset"] = strconv.Itoa(end)
	}

	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// stack is the whole service wired against a fakeAirtable.
type stack struct {
	service  *app.GalleryService
	rotation *app.Rotation
	server   *httptest.Server
}

type stackOptions struct {
	attempts int
	apiKey   string
	flags    map[string]string
}

func sourceConfig(baseURL, apiKey string) config.SourceConfig {
	return config.SourceConfig{
		Name:     "airtable",
		BaseURL:  baseURL,
		APIKey:   apiKey,
		BaseID:   "appIntegration",
		Table:    "Quotes",
		View:     "Grid view",
		PageSize: 2,
		Dialect:  config.DialectName,
		Fields: config.FieldsConfig{
			Text:     "Quote",
			Author:   "Author",
			Year:     "Year",
			URL:      "Link",
			Bio:      "Bio",
			Image:    "Image",
			Group:    "Group",
			Priority: "Priority",
		},
	}
}

func clientConfig(attempts int) config.ClientConfig {
	return config.ClientConfig{
		Timeout: 2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     attempts,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func newStack(airtable *fakeAirtable, opts stackOptions) (*stack, error) {
	if opts.attempts == 0 {
		opts.attempts = 1
	}
	if opts.apiKey == "" {
		opts.apiKey = testAPIKey
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	source, err := acl.NewAirtableSource(clientConfig(opts.attempts), sourceConfig(airtable.server.URL, opts.apiKey), "integration", logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collectionMetrics, err := telemetry.NewCollectionMetrics(registry)
	if err != nil {
		return nil, err
	}

	service := app.NewGalleryService(app.GalleryServiceConfig{
		Loader: app.NewLoader(app.LoaderConfig{
			Source:   source,
			Observer: collectionMetrics,
			Timeout:  5 * time.Second,
			Logger:   logger,
		}),
		Flags:    flags.NewStatic(opts.flags),
		Defaults: app.GalleryDefaults{Grouped: true, DefaultSort: gallery.SortShuffle, Gap: 32, Breakpoints: gallery.PixelBreakpoints},
		Logger:   logger,
	})

	rotation := app.NewRotation(app.RotationConfig{Interval: time.Hour, Logger: logger})
	service.OnLoad(rotation.Reset)

	health := ports.NewHealthRegistry()
	if err := health.Register(source); err != nil {
		return nil, err
	}
	if err := health.Register(ports.CheckFunc("collection", service.Ready)); err != nil {
		return nil, err
	}

	theme := handlers.NewThemeHandler(app.ThemeLight, false)
	page, err := handlers.NewPageHandler(handlers.PageConfig{Title: "Quotes", Gallery: service, Rotation: rotation, Theme: theme})
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		AppConfig:       &config.AppConfig{Name: "quote-gallery", Version: "test", Environment: "test"},
		HealthHandler:   handlers.NewHealthHandler(health, handlers.NewBuildInfo("test", "none", "now"), registry),
		GalleryHandler:  handlers.NewGalleryHandler(service),
		FeaturedHandler: handlers.NewFeaturedHandler(rotation),
		ThemeHandler:    theme,
		PageHandler:     page,
		Timeout:         httpadapter.DefaultRequestTimeout,
	})

	return &stack{
		service:  service,
		rotation: rotation,
		server:   httptest.NewServer(engine),
	}, nil
}

func (s *stack) Close() {
	s.server.Close()
}
