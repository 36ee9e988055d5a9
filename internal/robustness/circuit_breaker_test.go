package robustness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, ok))
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	now := time.Now()
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.GetState())

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.GetState())

	// A failed probe reopens the circuit
	_ = cb.Execute(ctx, fail)
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)
}

func TestHalfOpenAllowsOneProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	now := time.Now()
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	now = now.Add(2 * time.Minute)

	err := cb.Execute(ctx, func() error {
		assert.Equal(t, StateHalfOpen, cb.GetState())
		return cb.Execute(ctx, ok)
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestIgnoredErrors(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	cb.IsFailure = func(err error) bool { return !errors.Is(err, errBoom) }
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.ErrorIs(t, cb.Execute(ctx, func() error { return context.Canceled }), context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCancelledContext(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, cb.Execute(ctx, ok), context.Canceled)
}
