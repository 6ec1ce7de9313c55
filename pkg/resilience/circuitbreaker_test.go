package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond, 1)
	fail := func(ctx context.Context) error { return errors.New("boom") }

	require.Error(t, cb.Execute(context.Background(), fail))
	require.Equal(t, StateClosed, cb.State())

	require.Error(t, cb.Execute(context.Background(), fail))
	require.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_RejectsWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour, 1)
	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") }))
	require.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestCircuitBreaker_HalfOpenClosesOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") }))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("still down") }))
	require.Equal(t, StateOpen, cb.State())
}
