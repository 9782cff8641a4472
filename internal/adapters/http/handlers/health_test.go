package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func healthEngine(t *testing.T, checks ...ports.HealthChecker) (*gin.Engine, *prometheus.Registry) {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checks {
		require.NoError(t, registry.Register(c))
	}

	reg := prometheus.NewRegistry()
	engine := gin.New()
	NewHealthHandler(registry, NewBuildInfo("1.2.3", "def456", "2026-02-01T12:00:00Z"), reg).Register(engine)

	return engine, reg
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.0.0", "abc123", "2026-01-15T10:00:00Z")

	assert.Equal(t, "1.0.0", bi.Version)
	assert.Equal(t, "abc123", bi.Commit)
	assert.Equal(t, runtime.Version(), bi.GoVersion)
}

func TestHealthHandler_Liveness(t *testing.T) {
	engine, _ := healthEngine(t, ports.CheckFunc("collection", func(context.Context) error {
		return domain.ErrNotLoaded
	}))

	w := get(engine, "/-/live")

	assert.Equal(t, http.StatusOK, w.Code, "liveness ignores dependencies")

	var resp probeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthHandler_Readiness(t *testing.T) {
	healthy := ports.CheckFunc("airtable", func(context.Context) error { return nil })
	notLoaded := ports.CheckFunc("collection", func(context.Context) error { return domain.ErrNotLoaded })

	tests := []struct {
		name       string
		checks     []ports.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, "healthy"},
		{"all healthy", []ports.HealthChecker{healthy}, http.StatusOK, "healthy"},
		{"collection not loaded", []ports.HealthChecker{healthy, notLoaded}, http.StatusServiceUnavailable, "collection not loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := healthEngine(t, tt.checks...)

			w := get(engine, "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestHealthHandler_BuildInfo(t *testing.T) {
	engine, _ := healthEngine(t)

	w := get(engine, "/-/build")
	require.Equal(t, http.StatusOK, w.Code)

	var resp BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "def456", resp.Commit)
}

func TestHealthHandler_MetricsUsesRegistry(t *testing.T) {
	engine, reg := healthEngine(t)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gallery_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	w := get(engine, "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "gallery_test_total 1")
}
