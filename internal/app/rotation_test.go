package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
)

func featuredQuotes() []domain.Quote {
	return []domain.Quote{{Text: "first"}, {Text: "second"}, {Text: "third"}}
}

func isRunning(r *Rotation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

func startRotation(t *testing.T, cfg RotationConfig) *Rotation {
	t.Helper()

	cfg.Logger = discardLogger()
	r := NewRotation(cfg)
	r.Reset(featuredQuotes())
	r.Start(context.Background())
	t.Cleanup(r.Stop)

	require.Eventually(t, func() bool { return isRunning(r) }, time.Second, time.Millisecond)

	return r
}

func TestNewRotation_PanicsWithoutInterval(t *testing.T) {
	assert.Panics(t, func() {
		NewRotation(RotationConfig{})
	})
}

func TestRotation_Empty(t *testing.T) {
	r := NewRotation(RotationConfig{Interval: time.Second, Logger: discardLogger()})

	state := r.Advance(gallery.Forward)
	assert.False(t, state.Active)
	assert.Zero(t, state.Len)
}

func TestRotation_AdvanceWhileIdleSettles(t *testing.T) {
	r := NewRotation(RotationConfig{Interval: time.Second, Fade: time.Hour, Logger: discardLogger()})
	r.Reset(featuredQuotes())

	state := r.Advance(gallery.Forward)
	assert.False(t, state.Fading)
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, "second", state.Quote.Text)

	r.Advance(gallery.Backward)
	state = r.Advance(gallery.Backward)
	assert.Equal(t, 2, state.Index, "wraps backwards")
}

func TestRotation_ResetReturnsToFirst(t *testing.T) {
	r := NewRotation(RotationConfig{Interval: time.Second, Logger: discardLogger()})
	r.Reset(featuredQuotes())
	r.Advance(gallery.Forward)

	r.Reset(featuredQuotes()[:2])

	state := r.Current()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 2, state.Len)
}

func TestRotation_TicksAdvance(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := startRotation(t, RotationConfig{Interval: 10 * time.Millisecond})

	require.Eventually(t, func() bool { return r.Current().Index != 0 }, time.Second, time.Millisecond)

	r.Stop()
}

func TestRotation_FadeSettles(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := startRotation(t, RotationConfig{Interval: time.Hour, Fade: 20 * time.Millisecond})

	state := r.Advance(gallery.Forward)
	assert.True(t, state.Fading)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, 1, state.Target)

	require.Eventually(t, func() bool {
		s := r.Current()
		return !s.Fading && s.Index == 1
	}, time.Second, time.Millisecond)

	r.Stop()
}

func TestRotation_StopFinishesFade(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := startRotation(t, RotationConfig{Interval: time.Hour, Fade: time.Hour})

	state := r.Advance(gallery.Forward)
	require.True(t, state.Fading)

	r.Stop()

	state = r.Current()
	assert.False(t, state.Fading)
	assert.Equal(t, 1, state.Index)
}

func TestRotation_ResetWhileRunningRearms(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRotation(RotationConfig{Interval: 10 * time.Millisecond, Logger: discardLogger()})
	r.Start(context.Background())
	defer r.Stop()

	require.Eventually(t, func() bool { return isRunning(r) }, time.Second, time.Millisecond)
	assert.False(t, r.Current().Active)

	r.Reset(featuredQuotes())

	require.Eventually(t, func() bool { return r.Current().Index != 0 }, time.Second, time.Millisecond)
}

func TestRotation_StartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRotation(RotationConfig{Interval: time.Hour, Logger: discardLogger()})

	r.Stop()
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()

	assert.False(t, isRunning(r))
}

func TestRotation_ContextEndsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRotation(RotationConfig{Interval: time.Hour, Logger: discardLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return isRunning(r) }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
