package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	AppConfig *config.AppConfig

	HealthHandler   *handlers.HealthHandler
	GalleryHandler  *handlers.GalleryHandler
	FeaturedHandler *handlers.FeaturedHandler
	ThemeHandler    *handlers.ThemeHandler
	PageHandler     *handlers.PageHandler

	// Timeout bounds each API request. Zero disables the deadline.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ endpoints)
//
// Route groups:
//   - /-/ (internal): health, build info and Prometheus metrics
//   - /api/v1/: the gallery JSON API, bounded by Timeout
//   - /: the HTML gallery page and its form targets
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	// Apply global middleware in order
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	// Register health endpoints (no auth, no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	// Setup API v1 routes with timeout
	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Deadline(cfg.Timeout))
	setupAPIRoutes(apiV1, cfg)

	// HTML page and its form targets
	if cfg.PageHandler != nil {
		cfg.PageHandler.RegisterPageRoutes(engine)
	}
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.GalleryHandler != nil {
		cfg.GalleryHandler.RegisterGalleryRoutes(rg)
	}

	if cfg.FeaturedHandler != nil {
		cfg.FeaturedHandler.RegisterFeaturedRoutes(rg)
	}

	if cfg.ThemeHandler != nil {
		cfg.ThemeHandler.RegisterThemeRoutes(rg)
	}
}
