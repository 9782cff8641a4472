// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// LoadObserver receives the outcome of every load. telemetry.CollectionMetrics
// implements it.
type LoadObserver interface {
	ObserveLoad(loaded, dropped int, took time.Duration)
	ObserveFailure(took time.Duration)
}

// LoaderConfig contains the loader's dependencies.
type LoaderConfig struct {
	Source   ports.RecordSource
	Observer LoadObserver
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Loader fetches the raw records and turns them into the quote collection.
type Loader struct {
	source   ports.RecordSource
	observer LoadObserver
	timeout  time.Duration
	logger   *slog.Logger
}

// LoadResult is a successfully loaded collection.
type LoadResult struct {
	Quotes  []domain.Quote
	Dropped int
	Took    time.Duration
}

// NewLoader creates a Loader. Panics if Source is nil.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Source == nil {
		panic("loader requires a record source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		source:   cfg.Source,
		observer: cfg.Observer,
		timeout:  cfg.Timeout,
		logger:   logger.With(slog.String("component", "app.Loader")),
	}
}

// Load fetches and normalises the collection. Incomplete records are dropped
// silently; the only failure is the fetch itself, reported as a
// *domain.LoadError.
func (l *Loader) Load(ctx context.Context) (LoadResult, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := l.source.ListQuotes(ctx)
	took := time.Since(start)

	if err != nil {
		if l.observer != nil {
			l.observer.ObserveFailure(took)
		}
		l.logger.ErrorContext(ctx, "loading quotes failed",
			slog.String("source", l.source.Name()),
			slog.Duration("took", took),
			slog.Any("error", err),
		)
		return LoadResult{}, domain.NewLoadError(l.source.Name(), err)
	}

	quotes, dropped := gallery.Normalize(raw)

	if l.observer != nil {
		l.observer.ObserveLoad(len(quotes), dropped, took)
	}
	l.logger.DebugContext(ctx, "quotes loaded",
		slog.String("source", l.source.Name()),
		slog.Int("records", len(raw)),
		slog.Int("kept", len(quotes)),
		slog.Int("dropped", dropped),
		slog.Duration("took", took),
	)

	return LoadResult{Quotes: quotes, Dropped: dropped, Took: took}, nil
}
