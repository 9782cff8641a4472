package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func breakerWithClock(maxFailures, halfOpen int) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   maxFailures,
		Timeout:       time.Minute,
		HalfOpenLimit: halfOpen,
	}, WithClock(clock.Now))

	return cb, clock
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb, _ := breakerWithClock(3, 1)

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := breakerWithClock(3, 1)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "a success resets the streak")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_CoolDown(t *testing.T) {
	cb, clock := breakerWithClock(1, 2)
	cb.RecordFailure()

	clock.Advance(59 * time.Second)
	assert.False(t, cb.Allow())

	clock.Advance(time.Second)
	assert.True(t, cb.Allow(), "first probe")
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow(), "second probe")
	assert.False(t, cb.Allow(), "probe limit reached")
}

func TestCircuitBreaker_HalfOpenOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome func(cb *CircuitBreaker)
		want    State
	}{
		{
			name: "successes close",
			outcome: func(cb *CircuitBreaker) {
				cb.RecordSuccess()
				cb.RecordSuccess()
			},
			want: StateClosed,
		},
		{
			name:    "one success is not enough",
			outcome: func(cb *CircuitBreaker) { cb.RecordSuccess() },
			want:    StateHalfOpen,
		},
		{
			name: "failure reopens",
			outcome: func(cb *CircuitBreaker) {
				cb.RecordSuccess()
				cb.RecordFailure()
			},
			want: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := breakerWithClock(1, 2)
			cb.RecordFailure()
			clock.Advance(time.Minute)
			cb.Allow()
			cb.Allow()

			tt.outcome(cb)

			assert.Equal(t, tt.want, cb.State())
		})
	}
}

func TestCircuitBreaker_StateListener(t *testing.T) {
	var got []string
	clock := &fakeClock{now: time.Now()}

	cb := NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   1,
		Timeout:       time.Second,
		HalfOpenLimit: 1,
	},
		WithClock(clock.Now),
		WithStateListener(func(from, to State) {
			got = append(got, from.String()+">"+to.String())
		}),
	)

	cb.RecordFailure()
	clock.Advance(time.Second)
	cb.Allow()
	cb.RecordSuccess()

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, got)
}

func TestCircuitBreaker_ListenerMayReadState(t *testing.T) {
	var cb *CircuitBreaker
	var seen State

	cb = NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   1,
		Timeout:       time.Second,
		HalfOpenLimit: 1,
	}, WithStateListener(func(_, _ State) { seen = cb.State() }))

	cb.RecordFailure()

	assert.Equal(t, StateOpen, seen)
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(config.CircuitBreakerConfig{
		MaxFailures:   50,
		Timeout:       time.Second,
		HalfOpenLimit: 5,
	})

	var wg sync.WaitGroup
	for i := range 500 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !cb.Allow() {
				return
			}
			if i%2 == 0 {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
		}()
	}
	wg.Wait()

	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	for state, want := range map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(42):     "unknown",
	} {
		assert.Equal(t, want, state.String())
	}
}
