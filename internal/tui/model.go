// Package tui is the terminal gallery: a bubbletea program showing the
// featured carousel above masonry columns of quote cards.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
)

const (
	// DefaultResizeDebounce delays re-arranging after the terminal is resized.
	DefaultResizeDebounce = 150 * time.Millisecond

	// DefaultGap is the number of blank cells between columns.
	DefaultGap = 2

	// minCardWidth keeps cards readable on narrow terminals.
	minCardWidth = 16
)

// TerminalBreakpoints are the terminal widths, in cells, at which the
// gallery gains a column.
var TerminalBreakpoints = []int{80, 120}

// CollectionLoader fetches the quote collection. app.Loader implements it.
type CollectionLoader interface {
	Load(ctx context.Context) (app.LoadResult, error)
}

// Config contains the model's dependencies and display defaults.
type Config struct {
	Loader CollectionLoader
	Theme  *app.ThemeService

	Title       string
	Grouped     bool
	Sort        gallery.SortMode
	Breakpoints []int
	Gap         int

	// Interval is how long each featured quote stays; Fade how long the
	// cross-fade to the next one takes. Zero Fade switches instantly.
	Interval time.Duration
	Fade     time.Duration

	ResizeDebounce time.Duration
	Logger         *slog.Logger
}

type state int

const (
	stateLoading state = iota
	stateFailed
	stateReady
)

type (
	loadedMsg struct{ res app.LoadResult }
	failedMsg struct{ err error }
	resizeMsg struct {
		seq   int
		width int
	}
	tickMsg struct{ gen uint64 }
	fadeMsg struct{ token uint64 }
)

// Model is the bubbletea model for the terminal gallery.
type Model struct {
	cfg    Config
	logger *slog.Logger
	keys   keyMap
	help   help.Model

	ctx    context.Context
	cancel context.CancelFunc

	state   state
	err     error
	spinner spinner.Model

	sel         *gallery.Selection
	carousel    *gallery.Carousel
	arrangement gallery.Arrangement
	tickGen     uint64

	// arrangedWidth is the card width arrangement was estimated for.
	arrangedWidth int

	theme  app.Theme
	styles styles

	width     int
	height    int
	columns   int
	resizeSeq int

	col, row int
	overlay  bool
	quitting bool
}

// New creates the model. The fetch it starts is bound to ctx; quitting
// cancels it.
func New(ctx context.Context, cfg Config) *Model {
	if cfg.Loader == nil {
		panic("tui requires a collection loader")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = "Quotes"
	}
	if cfg.Sort == "" {
		cfg.Sort = gallery.SortShuffle
	}
	if cfg.Breakpoints == nil {
		cfg.Breakpoints = TerminalBreakpoints
	}
	if cfg.Gap <= 0 {
		cfg.Gap = DefaultGap
	}
	if cfg.ResizeDebounce <= 0 {
		cfg.ResizeDebounce = DefaultResizeDebounce
	}

	ctx, cancel := context.WithCancel(ctx)

	theme := app.ThemeLight
	if cfg.Theme != nil {
		theme = cfg.Theme.Resolve(ctx)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		cfg:     cfg,
		logger:  cfg.Logger.With(slog.String("component", "tui")),
		keys:    defaultKeyMap(),
		help:    help.New(),
		ctx:     ctx,
		cancel:  cancel,
		spinner: sp,
		theme:   theme,
		styles:  newStyles(theme),
		columns: 1,
	}
}

// Init starts the spinner and the first fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	ctx := m.ctx
	loader := m.cfg.Loader

	return func() tea.Msg {
		res, err := loader.Load(ctx)
		if err != nil {
			return failedMsg{err: err}
		}

		return loadedMsg{res: res}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.resize(msg)

	case resizeMsg:
		if msg.seq == m.resizeSeq {
			m.applyWidth(msg.width)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		return m, m.loaded(msg.res)

	case failedMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		m.state = stateFailed
		m.err = msg.err
		m.logger.Error("loading quotes failed", slog.Any("error", msg.err))
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		return m, tea.Batch(m.step(gallery.Forward), m.scheduleTick())

	case fadeMsg:
		m.carousel.Settle(msg.token)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) resize(msg tea.WindowSizeMsg) tea.Cmd {
	m.height = msg.Height
	m.help.Width = msg.Width

	if m.width == 0 {
		m.applyWidth(msg.Width)
		return nil
	}

	m.resizeSeq++
	seq, width := m.resizeSeq, msg.Width

	return tea.Tick(m.cfg.ResizeDebounce, func(time.Time) tea.Msg {
		return resizeMsg{seq: seq, width: width}
	})
}

func (m *Model) applyWidth(width int) {
	m.width = width

	columns := gallery.ColumnsForWidth(width, m.cfg.Breakpoints)
	for columns > 1 && m.cardWidth(columns) < minCardWidth {
		columns--
	}

	// Card heights depend on the card width, so a resize within the same
	// column count still reflows.
	if columns != m.columns || m.cardWidth(columns) != m.arrangedWidth {
		m.columns = columns
		m.rearrange()
	}
}

func (m *Model) loaded(res app.LoadResult) tea.Cmd {
	m.state = stateReady
	m.err = nil

	m.sel = gallery.NewSelection(res.Quotes,
		gallery.WithGrouping(m.cfg.Grouped),
		gallery.WithSortMode(m.cfg.Sort),
	)
	m.carousel = gallery.NewCarousel(res.Quotes)
	m.rearrange()

	m.logger.Debug("quotes loaded",
		slog.Int("quotes", len(res.Quotes)),
		slog.Int("dropped", res.Dropped),
	)

	return m.scheduleTick()
}

// scheduleTick arms the next carousel advance. Bumping the generation
// disarms any tick already in flight.
func (m *Model) scheduleTick() tea.Cmd {
	m.tickGen++
	if m.carousel == nil || !m.carousel.Active() || m.cfg.Interval <= 0 {
		return nil
	}

	gen := m.tickGen

	return tea.Tick(m.cfg.Interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m *Model) step(dir gallery.Direction) tea.Cmd {
	if m.carousel == nil {
		return nil
	}

	token, ok := m.carousel.Begin(dir)
	if !ok {
		return nil
	}

	if m.cfg.Fade <= 0 {
		m.carousel.Settle(token)
		return nil
	}

	return tea.Tick(m.cfg.Fade, func(time.Time) tea.Msg { return fadeMsg{token: token} })
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		m.cancel()
		return tea.Quit
	}

	switch m.state {
	case stateLoading:
		return nil
	case stateFailed:
		if key.Matches(msg, m.keys.Retry) {
			m.state = stateLoading
			m.err = nil
			return tea.Batch(m.spinner.Tick, m.fetch())
		}
		return nil
	}

	if m.overlay {
		if key.Matches(msg, m.keys.Close) {
			m.overlay = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Open):
		_, m.overlay = m.selected()
	case key.Matches(msg, m.keys.Sort):
		m.sel.SetSortMode(m.sel.SortMode().Next())
		m.rearrange()
	case key.Matches(msg, m.keys.Group):
		m.sel.CycleGroup()
		m.rearrange()
	case key.Matches(msg, m.keys.Theme):
		m.toggleTheme()
	case key.Matches(msg, m.keys.Next):
		return tea.Batch(m.step(gallery.Forward), m.scheduleTick())
	case key.Matches(msg, m.keys.Previous):
		return tea.Batch(m.step(gallery.Backward), m.scheduleTick())
	}

	return nil
}

func (m *Model) toggleTheme() {
	if m.cfg.Theme != nil {
		m.theme = m.cfg.Theme.Toggle(m.ctx)
	} else {
		m.theme = m.theme.Toggled()
	}

	m.styles = newStyles(m.theme)
}

func (m *Model) rearrange() {
	if m.sel == nil {
		return
	}

	width := m.cardWidth(m.columns)
	m.arrangedWidth = width
	m.arrangement = gallery.ArrangeWith(m.sel.Visible(), m.columns, 1, func(q domain.Quote) float64 {
		return float64(cardLines(q, width))
	})
	m.col, m.row = 0, 0
	m.overlay = false
}

// move shifts the selection by one card, skipping empty columns and
// clamping the row to the destination column.
func (m *Model) move(dc, dr int) {
	cols := m.arrangement.Columns
	if len(cols) == 0 {
		return
	}

	if dr != 0 {
		m.row = clamp(m.row+dr, 0, len(cols[m.col])-1)
		return
	}

	for c := m.col + dc; c >= 0 && c < len(cols); c += dc {
		if len(cols[c]) > 0 {
			m.col = c
			m.row = clamp(m.row, 0, len(cols[c])-1)
			return
		}
	}
}

func (m *Model) selected() (domain.Quote, bool) {
	cols := m.arrangement.Columns
	if m.col >= len(cols) || m.row >= len(cols[m.col]) {
		return domain.Quote{}, false
	}

	return cols[m.col][m.row].Quote, true
}

func (m *Model) cardWidth(columns int) int {
	if m.width == 0 {
		return minCardWidth
	}

	return (m.width - (columns-1)*m.cfg.Gap) / columns
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}

	return max(lo, min(v, hi))
}
