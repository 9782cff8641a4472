package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
)

// RotationConfig configures the featured quote rotation.
type RotationConfig struct {
	// Interval between automatic advances.
	Interval time.Duration

	// Fade is how long a transition stays in flight before it settles.
	Fade time.Duration

	Logger *slog.Logger
}

// Featured is a snapshot of the carousel.
type Featured struct {
	Active bool
	Index  int
	Target int
	Fading bool
	Len    int
	Quote  domain.Quote
}

// Rotation drives a gallery.Carousel from timers. The carousel keeps its
// own copy of the collection in source order, so sorting the grid never
// moves the featured quote.
//
// Run owns the timers: the interval ticker only exists while there is
// something to show, and stopping Run clears both it and any pending fade.
type Rotation struct {
	interval time.Duration
	fade     time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	carousel *gallery.Carousel
	running  bool

	fades  chan uint64
	resets chan struct{}

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRotation creates an idle, empty rotation.
func NewRotation(cfg RotationConfig) *Rotation {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Interval <= 0 {
		panic("rotation interval must be positive")
	}

	return &Rotation{
		interval: cfg.Interval,
		fade:     cfg.Fade,
		logger:   logger.With(slog.String("component", "app.Rotation")),
		carousel: gallery.NewCarousel(nil),
		fades:    make(chan uint64, 1),
		resets:   make(chan struct{}, 1),
	}
}

// Reset replaces the featured quotes and returns to the first one.
func (r *Rotation) Reset(quotes []domain.Quote) {
	r.mu.Lock()
	r.carousel.Reset(quotes)
	r.mu.Unlock()

	select {
	case r.resets <- struct{}{}:
	default:
	}
}

// Current returns the carousel state.
func (r *Rotation) Current() Featured {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.featuredLocked()
}

// Advance moves one step in dir. A fade already in flight is cut short.
// When Run is not active the move settles immediately.
func (r *Rotation) Advance(dir gallery.Direction) Featured {
	r.mu.Lock()
	token, ok := r.carousel.Begin(dir)
	running := r.running
	if ok && (!running || r.fade <= 0) {
		r.carousel.Settle(token)
	}
	state := r.featuredLocked()
	r.mu.Unlock()

	if ok && running && r.fade > 0 {
		latest(r.fades, token)
	}

	return state
}

// Start runs the rotation in a background goroutine until Stop or ctx ends.
// Calling Start on a running rotation does nothing.
func (r *Rotation) Start(ctx context.Context) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
}

// Stop halts a rotation started with Start and waits for it to exit.
func (r *Rotation) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.cancel == nil {
		return
	}

	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
}

// Run drives the carousel until ctx ends. It always returns nil.
func (r *Rotation) Run(ctx context.Context) error {
	r.setRunning(true)
	defer r.setRunning(false)

	var (
		ticker  *time.Ticker
		tick    <-chan time.Time
		fade    = time.NewTimer(r.fade)
		fadeC   <-chan time.Time
		pending uint64
	)
	fade.Stop()

	defer func() {
		fade.Stop()
		if ticker != nil {
			ticker.Stop()
		}
	}()

	arm := func() {
		active := r.Current().Active
		switch {
		case active && ticker == nil:
			ticker = time.NewTicker(r.interval)
			tick = ticker.C
		case active:
			ticker.Reset(r.interval)
		case ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}

	schedule := func(token uint64) {
		if r.fade <= 0 {
			r.settle(token)
			return
		}
		pending = token
		fade.Reset(r.fade)
		fadeC = fade.C
	}

	arm()
	r.logger.DebugContext(ctx, "rotation started",
		slog.Duration("interval", r.interval),
		slog.Duration("fade", r.fade),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.DebugContext(ctx, "rotation stopped")
			return nil

		case <-r.resets:
			fade.Stop()
			fadeC = nil
			arm()

		case <-tick:
			r.mu.Lock()
			token, ok := r.carousel.Begin(gallery.Forward)
			r.mu.Unlock()
			if ok {
				schedule(token)
			}

		case token := <-r.fades:
			schedule(token)
			if ticker != nil {
				ticker.Reset(r.interval)
			}

		case <-fadeC:
			fadeC = nil
			r.settle(pending)
		}
	}
}

func (r *Rotation) settle(token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carousel.Settle(token)
}

func (r *Rotation) setRunning(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = v
	if !v {
		r.carousel.Finish()
	}
}

func (r *Rotation) featuredLocked() Featured {
	q, ok := r.carousel.Current()

	return Featured{
		Active: ok,
		Index:  r.carousel.Index(),
		Target: r.carousel.Target(),
		Fading: r.carousel.Fading(),
		Len:    r.carousel.Len(),
		Quote:  q,
	}
}

// latest replaces any queued value in ch with v.
func latest(ch chan uint64, v uint64) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
