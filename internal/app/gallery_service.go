package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

const loadKey = "collection"

// GalleryDefaults are the presentation defaults from configuration. Feature
// flags may override Grouped and DefaultSort per request.
type GalleryDefaults struct {
	Grouped     bool
	DefaultSort gallery.SortMode
	Gap         float64
	Breakpoints []int
}

// GalleryServiceConfig contains the gallery service's dependencies.
type GalleryServiceConfig struct {
	Loader   *Loader
	Flags    ports.FeatureFlags
	Defaults GalleryDefaults
	Logger   *slog.Logger
}

// GalleryService owns the loaded collection and answers every read the
// shells need. Loads are deduplicated and the collection is swapped
// wholesale, so readers always see one consistent snapshot.
type GalleryService struct {
	loader   *Loader
	flags    ports.FeatureFlags
	defaults GalleryDefaults
	logger   *slog.Logger

	group    singleflight.Group
	snapshot atomic.Pointer[snapshot]

	// failure is the most recent load error, cleared by the next success.
	failure atomic.Pointer[domain.LoadError]

	mu        sync.Mutex
	listeners []func([]domain.Quote)
}

type snapshot struct {
	quotes   []domain.Quote
	dropped  int
	loadedAt time.Time
}

// ViewRequest selects what part of the collection to show.
type ViewRequest struct {
	// Group is a group label or "" / "All" for everything.
	Group string

	// Sort is a sort mode name; "" uses the configured default.
	Sort string

	// Seed makes a shuffle reproducible when set.
	Seed *uint64

	// Grouped overrides grouped display when set.
	Grouped *bool
}

// Entry is a visible quote together with its stable collection index.
type Entry struct {
	Index int
	Quote domain.Quote
}

// View is the filtered, sorted list for a request.
type View struct {
	Groups  []string
	Group   string
	Sort    gallery.SortMode
	Grouped bool
	Entries []Entry
}

// Layout is a View arranged into masonry columns. Placement indices point
// into View.Entries.
type Layout struct {
	View
	Columns     int
	Gap         float64
	Arrangement gallery.Arrangement
}

// LayoutRequest adds column sizing to a ViewRequest. Columns wins over
// Width; with neither the widest layout is used.
type LayoutRequest struct {
	ViewRequest
	Columns int
	Width   int
	Gap     *float64
}

// Status describes the loaded collection.
type Status struct {
	Loaded   bool
	Quotes   int
	Dropped  int
	LoadedAt time.Time
}

// NewGalleryService creates a GalleryService. Panics if Loader is nil.
func NewGalleryService(cfg GalleryServiceConfig) *GalleryService {
	if cfg.Loader == nil {
		panic("gallery service requires a loader")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaults := cfg.Defaults
	if defaults.DefaultSort == "" {
		defaults.DefaultSort = gallery.SortShuffle
	}

	return &GalleryService{
		loader:   cfg.Loader,
		flags:    cfg.Flags,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "app.GalleryService")),
	}
}

// OnLoad registers fn to receive every newly loaded collection, in source
// order. fn runs synchronously after the swap.
func (s *GalleryService) OnLoad(fn func([]domain.Quote)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// Load fetches the collection and swaps it in. Concurrent calls share one
// fetch; each caller stops waiting when its own ctx ends, while the fetch
// itself runs to the loader's timeout. On failure the previous collection,
// if any, stays in place.
func (s *GalleryService) Load(ctx context.Context) (Status, error) {
	fetchCtx := context.WithoutCancel(ctx)

	ch := s.group.DoChan(loadKey, func() (any, error) {
		res, err := s.loader.Load(fetchCtx)
		if err != nil {
			var loadErr *domain.LoadError
			if errors.As(err, &loadErr) {
				s.failure.Store(loadErr)
			}
			return nil, err
		}

		snap := newSnapshot(res)
		s.snapshot.Store(snap)
		s.failure.Store(nil)
		s.notify(snap.quotes)

		return snap.status(), nil
	})

	select {
	case <-ctx.Done():
		return Status{}, domain.NewLoadError(s.loader.source.Name(), ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return Status{}, r.Err
		}
		return r.Val.(Status), nil
	}
}

// Status reports on the current collection.
func (s *GalleryService) Status() Status {
	snap := s.snapshot.Load()
	if snap == nil {
		return Status{}
	}

	return snap.status()
}

// Ready is a health check: it fails until a collection has been loaded.
func (s *GalleryService) Ready(_ context.Context) error {
	_, err := s.current()
	return err
}

// Quotes returns the collection in source order.
func (s *GalleryService) Quotes() ([]domain.Quote, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	return slices.Clone(snap.quotes), nil
}

// Quote returns the quote at a collection index.
func (s *GalleryService) Quote(index int) (domain.Quote, error) {
	snap, err := s.current()
	if err != nil {
		return domain.Quote{}, err
	}

	if index < 0 || index >= len(snap.quotes) {
		return domain.Quote{}, domain.NewNotFoundError("quote", strconv.Itoa(index))
	}

	return snap.quotes[index], nil
}

// Groups lists "All" followed by every group alphabetically.
func (s *GalleryService) Groups() ([]string, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	return gallery.NewSelection(snap.quotes).AvailableGroups(), nil
}

// View filters and sorts the collection.
func (s *GalleryService) View(ctx context.Context, req ViewRequest) (View, error) {
	snap, err := s.current()
	if err != nil {
		return View{}, err
	}

	opts, err := s.selectionOptions(ctx, req)
	if err != nil {
		return View{}, err
	}

	sel := gallery.NewSelection(snap.quotes, opts...)
	visible := sel.Visible()
	indices := sel.VisibleIndices()

	entries := make([]Entry, len(visible))
	for i, q := range visible {
		entries[i] = Entry{Index: indices[i], Quote: q}
	}

	return View{
		Groups:  sel.AvailableGroups(),
		Group:   sel.GroupFilter(),
		Sort:    sel.SortMode(),
		Grouped: sel.Grouped(),
		Entries: entries,
	}, nil
}

// Layout arranges a View into columns.
func (s *GalleryService) Layout(ctx context.Context, req LayoutRequest) (Layout, error) {
	view, err := s.View(ctx, req.ViewRequest)
	if err != nil {
		return Layout{}, err
	}

	columns := req.Columns
	switch {
	case columns > 0:
	case req.Width > 0:
		columns = gallery.ColumnsForWidth(req.Width, s.defaults.Breakpoints)
	default:
		columns = len(s.defaults.Breakpoints) + 1
	}

	gap := s.defaults.Gap
	if req.Gap != nil {
		if *req.Gap < 0 {
			return Layout{}, domain.NewValidationErrorWithValue("gap", "must not be negative", *req.Gap)
		}
		gap = *req.Gap
	}

	quotes := make([]domain.Quote, len(view.Entries))
	for i, e := range view.Entries {
		quotes[i] = e.Quote
	}

	return Layout{
		View:        view,
		Columns:     columns,
		Gap:         gap,
		Arrangement: gallery.Arrange(quotes, columns, gap),
	}, nil
}

// Defaults returns the effective grouping and sort defaults for ctx.
func (s *GalleryService) Defaults(ctx context.Context) (grouped bool, mode gallery.SortMode) {
	grouped, mode = s.defaults.Grouped, s.defaults.DefaultSort
	if s.flags == nil {
		return grouped, mode
	}

	grouped = s.flags.IsEnabled(ctx, ports.FlagGroupedDisplay, grouped)

	if raw := s.flags.GetString(ctx, ports.FlagDefaultSort, string(mode)); raw != string(mode) {
		parsed, err := gallery.ParseSortMode(raw)
		if err != nil {
			s.logger.WarnContext(ctx, "ignoring invalid default-sort flag", slog.String("value", raw))
		} else {
			mode = parsed
		}
	}

	return grouped, mode
}

func (s *GalleryService) selectionOptions(ctx context.Context, req ViewRequest) ([]gallery.Option, error) {
	grouped, mode := s.Defaults(ctx)

	if req.Sort != "" {
		parsed, err := gallery.ParseSortMode(req.Sort)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}
	if req.Grouped != nil {
		grouped = *req.Grouped
	}

	opts := []gallery.Option{
		gallery.WithGrouping(grouped),
		gallery.WithSortMode(mode),
	}
	if req.Group != "" {
		opts = append(opts, gallery.WithGroupFilter(req.Group))
	}
	if req.Seed != nil {
		opts = append(opts, gallery.WithSeed(*req.Seed))
	}

	return opts, nil
}

// current returns the loaded snapshot. Before the first success it reports
// the last load failure, or ErrNotLoaded while nothing has failed yet.
func (s *GalleryService) current() (*snapshot, error) {
	snap := s.snapshot.Load()
	if snap != nil {
		return snap, nil
	}

	if failure := s.failure.Load(); failure != nil {
		return nil, failure
	}

	return nil, domain.ErrNotLoaded
}

func (s *GalleryService) notify(quotes []domain.Quote) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(slices.Clone(quotes))
	}
}

func newSnapshot(res LoadResult) *snapshot {
	return &snapshot{
		quotes:   res.Quotes,
		dropped:  res.Dropped,
		loadedAt: time.Now(),
	}
}

func (s *snapshot) status() Status {
	return Status{
		Loaded:   true,
		Quotes:   len(s.quotes),
		Dropped:  s.dropped,
		LoadedAt: s.loadedAt,
	}
}
