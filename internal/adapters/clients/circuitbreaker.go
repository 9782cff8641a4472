package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down elapses.
	StateOpen

	// StateHalfOpen admits a limited number of probes.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// transition is a state change waiting to be reported once the lock is
// released.
type transition struct {
	from, to State
}

// CircuitBreaker stops calls to the record source after repeated failures.
//
//   - closed to open after MaxFailures consecutive failures
//   - open to half-open once Timeout has passed since the last failure
//   - half-open to closed after HalfOpenLimit consecutive successes
//   - half-open to open on any failure
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         config.CircuitBreakerConfig
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time

	listener func(from, to State)
	now      func() time.Time
}

// BreakerOption customises a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithStateListener registers fn to be called after every state change.
// fn runs on the goroutine that caused the change, outside the lock.
func WithStateListener(fn func(from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.listener = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}

	return cb
}

// Allow reports whether a request may proceed. An open breaker whose
// cool-down has elapsed becomes half-open and admits the caller as its
// first probe.
func (cb *CircuitBreaker) Allow() bool {
	var allowed bool

	cb.update(func() *transition {
		switch cb.state {
		case StateClosed:
			allowed = true
		case StateOpen:
			// Check if timeout has passed
			if cb.now().Sub(cb.lastFailure) < cb.cfg.Timeout {
				return nil
			}
			t := cb.moveTo(StateHalfOpen)
			cb.probes = 1
			allowed = true
			return t
		case StateHalfOpen:
			// Limit concurrent requests in half-open state
			if cb.probes < cb.cfg.HalfOpenLimit {
				cb.probes++
				allowed = true
			}
		}
		return nil
	})

	return allowed
}

// RecordSuccess records a completed request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.update(func() *transition {
		switch cb.state {
		case StateClosed:
			// Reset failure count on success
			cb.failures = 0
		case StateHalfOpen:
			cb.probes--
			cb.successes++
			if cb.successes >= cb.cfg.HalfOpenLimit {
				return cb.moveTo(StateClosed)
			}
		}
		return nil
	})
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.update(func() *transition {
		cb.lastFailure = cb.now()

		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.cfg.MaxFailures {
				return cb.moveTo(StateOpen)
			}
		case StateHalfOpen:
			// Any failure in half-open immediately reopens
			cb.probes--
			return cb.moveTo(StateOpen)
		}
		return nil
	})
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

func (cb *CircuitBreaker) update(fn func() *transition) {
	cb.mu.Lock()
	t := fn()
	listener := cb.listener
	cb.mu.Unlock()

	// Notify outside the lock so the listener may read State
	if t != nil && listener != nil {
		listener(t.from, t.to)
	}
}

// moveTo must be called with the lock held.
func (cb *CircuitBreaker) moveTo(next State) *transition {
	if cb.state == next {
		return nil
	}

	t := &transition{from: cb.state, to: next}
	cb.state = next

	// Reset counters on state change
	cb.failures = 0
	cb.successes = 0
	if next != StateHalfOpen {
		cb.probes = 0
	}

	return t
}
