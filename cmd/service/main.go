// Package main is the entry point for the quote gallery web service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/flags"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/http"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
	"github.com/jsamuelsen/quote-gallery/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.App.Environment == "local",
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collectionMetrics, err := telemetry.NewCollectionMetrics(registry)
	if err != nil {
		return fmt.Errorf("registering collection metrics: %w", err)
	}

	// 5. Record source (ACL over the resilient HTTP client)
	source, err := acl.NewAirtableSource(cfg.Client, cfg.Source, cfg.App.Name+"/"+Version, logger)
	if err != nil {
		return err
	}

	// 6. Application services
	featureFlags := flags.NewStatic(cfg.Flags)
	logger.Debug("feature flags", slog.Any("flags", featureFlags.Snapshot()))

	galleryService := app.NewGalleryService(app.GalleryServiceConfig{
		Loader: app.NewLoader(app.LoaderConfig{
			Source:   source,
			Observer: collectionMetrics,
			Timeout:  cfg.Gallery.LoadTimeout,
			Logger:   logger,
		}),
		Flags: featureFlags,
		Defaults: app.GalleryDefaults{
			Grouped:     cfg.Gallery.Grouped,
			DefaultSort: gallery.SortMode(cfg.Gallery.DefaultSort),
			Gap:         cfg.Gallery.Gap,
			Breakpoints: cfg.Gallery.Breakpoints,
		},
		Logger: logger,
	})

	rotation := app.NewRotation(app.RotationConfig{
		Interval: cfg.Gallery.Carousel.Interval,
		Fade:     cfg.Gallery.Carousel.Fade,
		Logger:   logger,
	})
	galleryService.OnLoad(rotation.Reset)

	// 7. Health checks
	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(source); err != nil {
		return fmt.Errorf("registering source health check: %w", err)
	}
	if err := healthRegistry.Register(ports.CheckFunc("collection", galleryService.Ready)); err != nil {
		return fmt.Errorf("registering collection health check: %w", err)
	}

	// 8. Handlers
	themeHandler := handlers.NewThemeHandler(app.Theme(cfg.Preferences.DefaultTheme), cfg.App.Environment == "prod")

	pageHandler, err := handlers.NewPageHandler(handlers.PageConfig{
		Title:       "Quotes",
		Gallery:     galleryService,
		Rotation:    rotation,
		Theme:       themeHandler,
		Breakpoints: cfg.Gallery.Breakpoints,
	})
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// 9. HTTP server with all middleware and routes
	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		AppConfig:       &cfg.App,
		HealthHandler:   handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), registry),
		GalleryHandler:  handlers.NewGalleryHandler(galleryService),
		FeaturedHandler: handlers.NewFeaturedHandler(rotation),
		ThemeHandler:    themeHandler,
		PageHandler:     pageHandler,
		Timeout:         http.DefaultRequestTimeout,
	})

	// 10. Run until a signal arrives or the server fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx)
	})

	g.Go(func() error {
		// A failed first load is reported by the API and readiness probe;
		// it does not stop the service.
		if status, err := galleryService.Load(gctx); err != nil {
			logger.Error("initial load failed", slog.Any("error", err))
		} else {
			logger.Info("collection loaded",
				slog.Int("quotes", status.Quotes),
				slog.Int("dropped", status.Dropped),
			)
		}
		return nil
	})

	rotation.Start(gctx)
	defer rotation.Stop()

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
