package gallery

import (
	"slices"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// Direction is the way the carousel moves.
type Direction int

// Carousel directions.
const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Carousel is the featured-quote state machine:
//
//	Idle(i) --Begin--> Fading(i, next) --Settle--> Idle(next)
//
// It keeps its own copy of the quotes so that sorting the grid never moves
// the featured quote. Index is always within [0, Len()) when Len() > 0.
type Carousel struct {
	items   []domain.Quote
	current int
	next    int
	fading  bool
	gen     uint64
}

// NewCarousel creates an idle carousel at index 0.
func NewCarousel(items []domain.Quote) *Carousel {
	c := &Carousel{}
	c.Reset(items)

	return c
}

// Reset replaces the items and returns to Idle(0). Any pending fade is
// invalidated.
func (c *Carousel) Reset(items []domain.Quote) {
	c.items = slices.Clone(items)
	c.current = 0
	c.next = 0
	c.fading = false
	c.gen++
}

// Len returns the number of featured quotes.
func (c *Carousel) Len() int { return len(c.items) }

// Active reports whether there is anything to show. An inactive carousel
// renders nothing and its timer must not run.
func (c *Carousel) Active() bool { return len(c.items) > 0 }

// Index returns the current index.
func (c *Carousel) Index() int { return c.current }

// Fading reports whether a transition is in flight.
func (c *Carousel) Fading() bool { return c.fading }

// Target is the index the in-flight fade will settle on, or Index when idle.
func (c *Carousel) Target() int {
	if c.fading {
		return c.next
	}

	return c.current
}

// Current returns the quote at Index.
func (c *Carousel) Current() (domain.Quote, bool) {
	if !c.Active() {
		return domain.Quote{}, false
	}

	return c.items[c.current], true
}

// Begin starts a fade one step in dir. If a fade is already in flight it
// is cut short: its target becomes current and a new fade starts from
// there. The returned token must be passed to Settle; ok is false when the
// carousel is empty.
func (c *Carousel) Begin(dir Direction) (token uint64, ok bool) {
	if !c.Active() {
		return 0, false
	}

	if c.fading {
		c.current = c.next
	}

	c.next = wrap(c.current+int(dir), len(c.items))
	c.fading = true
	c.gen++

	return c.gen, true
}

// Settle completes the fade started with token. Tokens from superseded
// fades are ignored and Settle returns false.
func (c *Carousel) Settle(token uint64) bool {
	if !c.fading || token != c.gen {
		return false
	}

	c.current = c.next
	c.fading = false

	return true
}

// Finish completes any in-flight fade at once and invalidates its token.
func (c *Carousel) Finish() {
	if !c.fading {
		return
	}

	c.current = c.next
	c.fading = false
	c.gen++
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
