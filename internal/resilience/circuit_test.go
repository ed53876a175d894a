package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("down")

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func newTestBreaker(clock *time.Time) *Breaker {
	b := NewBreaker(Options{Name: "catalog_cache", MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute})
	b.now = func() time.Time { return *clock }
	return b
}

func TestBreakerTransitions(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	b := newTestBreaker(&clock)
	ctx := context.Background()

	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, Closed, b.State())
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, Open, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.False(t, called)

	clock = clock.Add(time.Minute)
	require.NoError(t, b.Do(ctx, succeed))
	require.Equal(t, Closed, b.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	b := newTestBreaker(&clock)
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, fail)
	clock = clock.Add(time.Minute)
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, Open, b.State())
	require.ErrorIs(t, b.Do(ctx, succeed), ErrOpenCircuit)
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	b := newTestBreaker(&clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Do(ctx, succeed))
	}
	require.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, Closed, b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	b := newTestBreaker(&clock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(ctx, func(ctx context.Context) error { return ctx.Err() }), context.Canceled)
	}
	require.Equal(t, Closed, b.State())
}

func TestBreakerMetrics(t *testing.T) {
	MustRegisterMetrics("watt_test", prometheus.NewRegistry())

	clock := time.Unix(1_700_000_000, 0)
	b := NewBreaker(Options{Name: "metrics_probe", MinRequests: 1, OpenFor: time.Minute})
	b.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("metrics_probe")))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("metrics_probe", "closed", "open")))

	clock = clock.Add(time.Minute)
	_ = b.Do(ctx, succeed)
	require.Equal(t, 0.0, testutil.ToFloat64(BreakerState.WithLabelValues("metrics_probe")))
}

func TestBreakerCancelledProbeAllowsRetry(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	b := newTestBreaker(&clock)
	_ = b.Do(context.Background(), fail)
	_ = b.Do(context.Background(), fail)
	clock = clock.Add(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Do(ctx, func(ctx context.Context) error { return ctx.Err() }), context.Canceled)
	require.Equal(t, Open, b.State())

	require.NoError(t, b.Do(context.Background(), succeed))
	require.Equal(t, Closed, b.State())
}
