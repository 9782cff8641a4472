// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// BuildInfo is stamped into the binary with ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills GoVersion from the running toolchain.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the operational endpoints under /-/: probes, build
// stamp and the Prometheus exposition of the loader gauges.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	metrics   http.Handler
}

// NewHealthHandler creates the handler. A nil gatherer exposes the default
// Prometheus registry.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		metrics:   promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

type probeResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Liveness answers 200 while the process runs. It never consults the record
// source, so a slow Airtable cannot get the pod restarted.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, probeResponse{Status: "ok"})
}

// Readiness answers 503 until every registered check passes. The collection
// check fails until the first load succeeds.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, probeResponse{Status: string(result.Status), Checks: result.Checks})
}

// Build returns the build stamp.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// Register mounts live, ready, build and metrics under /-/.
func (h *HealthHandler) Register(engine *gin.Engine) {
	ops := engine.Group("/-")
	ops.GET("/live", h.Liveness)
	ops.GET("/ready", h.Readiness)
	ops.GET("/build", h.Build)
	ops.GET("/metrics", gin.WrapH(h.metrics))
}
