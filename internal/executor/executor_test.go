package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Sh00ty/port-prober/pkg/probe"
	"github.com/Sh00ty/port-prober/pkg/strategies/mockhc"
)

type countingStrategy struct {
	inner   probe.Strategy
	running atomic.Int64
	peak    atomic.Int64
}

func (c *countingStrategy) Probe(ctx context.Context, ep probe.Endpoint) probe.Result {
	cur := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		peak := c.peak.Load()
		if cur <= peak || c.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	return c.inner.Probe(ctx, ep)
}

func submit(t *testing.T, e *Executor, ctx context.Context, s probe.Strategy, n int) chan Reply {
	t.Helper()
	replies := make(chan Reply, n)
	for i := range n {
		require.NoError(t, e.ExecuteProbe(Task{
			Ctx:      ctx,
			Index:    i,
			Endpoint: probe.Endpoint{Host: "h", Port: i + 1},
			Strategy: s,
			Reply:    replies,
		}))
	}
	return replies
}

func TestExecutorRepliesOncePerTask(t *testing.T) {
	e := NewExecutor(4, 16, nil)
	e.Run()
	defer e.Close()

	s := &countingStrategy{inner: mockhc.NewMockStrategy(&mockhc.MockSettings{Delay: 10 * time.Millisecond})}
	const n = 20
	replies := submit(t, e, context.Background(), s, n)

	seen := make(map[int]bool)
	for range n {
		r := <-replies
		assert.False(t, r.Suppressed)
		assert.Equal(t, r.Index+1, r.Result.Endpoint.Port)
		assert.False(t, seen[r.Index], "duplicate reply %d", r.Index)
		seen[r.Index] = true
	}
	assert.Len(t, seen, n)
	assert.LessOrEqual(t, s.peak.Load(), int64(4))
}

func TestExecutorSuppressesCancelledTasks(t *testing.T) {
	e := NewExecutor(1, 8, nil)
	e.Run()
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := mockhc.NewMockStrategy(&mockhc.MockSettings{Delay: time.Hour})
	replies := submit(t, e, ctx, s, 3)
	cancel()

	for range 3 {
		select {
		case r := <-replies:
			assert.True(t, r.Suppressed)
		case <-time.After(time.Second):
			t.Fatal("cancelled task was not released")
		}
	}
}

func TestExecutorLimiterPacesDials(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	e := NewExecutor(4, 4, limiter)
	e.Run()
	defer e.Close()

	started := time.Now()
	replies := submit(t, e, context.Background(), mockhc.NewMockStrategy(&mockhc.MockSettings{}), 3)
	for range 3 {
		<-replies
	}
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)
}

func TestExecutorClosed(t *testing.T) {
	e := NewExecutor(1, 1, nil)
	e.Run()
	e.Close()
	e.Close()

	err := e.ExecuteProbe(Task{Ctx: context.Background(), Reply: make(chan Reply, 1)})
	assert.Error(t, err)
}

func TestExecutorAppliesTaskTimeout(t *testing.T) {
	e := NewExecutor(1, 1, nil)
	e.Run()
	defer e.Close()

	replies := make(chan Reply, 1)
	started := time.Now()
	require.NoError(t, e.ExecuteProbe(Task{
		Ctx:      context.Background(),
		Endpoint: probe.Endpoint{Host: "h", Port: 1},
		Strategy: mockhc.NewMockStrategy(&mockhc.MockSettings{Delay: time.Hour}),
		Timeout:  30 * time.Millisecond,
		Reply:    replies,
	}))

	r := <-replies
	assert.False(t, r.Suppressed)
	assert.Equal(t, probe.TimedOut, r.Result.Outcome)
	assert.Less(t, time.Since(started), time.Second)
}

func TestExecutorLimiterSuppressesOnlyOnceCtxIsDone(t *testing.T) {
	e := NewExecutor(1, 4, rate.NewLimiter(rate.Every(time.Second), 1))
	e.Run()
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	replies := submit(t, e, ctx, mockhc.NewMockStrategy(&mockhc.MockSettings{}), 2)

	first := <-replies
	assert.False(t, first.Suppressed)
	second := <-replies
	assert.True(t, second.Suppressed)
	assert.Error(t, ctx.Err())
}

func TestExecutorLimiterWithoutBurstReportsError(t *testing.T) {
	e := NewExecutor(1, 1, rate.NewLimiter(rate.Every(time.Second), 0))
	e.Run()
	defer e.Close()

	replies := make(chan Reply, 1)
	ep := probe.Endpoint{Host: "h", Port: 1}
	require.NoError(t, e.ExecuteProbe(Task{
		Ctx:      context.Background(),
		Endpoint: ep,
		Strategy: mockhc.NewMockStrategy(&mockhc.MockSettings{}),
		Reply:    replies,
	}))

	r := <-replies
	assert.False(t, r.Suppressed)
	assert.Equal(t, probe.Error, r.Result.Outcome)
	assert.Equal(t, ep, r.Result.Endpoint)
	assert.NotEmpty(t, r.Result.Err)
}
