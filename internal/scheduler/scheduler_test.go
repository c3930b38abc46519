package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRepeatsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int64
	s := New(10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 3 {
			cancel()
		}
		return errors.New("keeps going")
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int64(3), runs.Load())
}

func TestJitterBounds(t *testing.T) {
	for range 100 {
		d := addIntervalWithJitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 1100*time.Millisecond)
	}
	assert.Zero(t, jit(0))
}
