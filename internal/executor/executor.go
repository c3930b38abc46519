package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Sh00ty/port-prober/pkg/probe"
)

// Task is one probe attempt. Reply must have room for every task of the run,
// workers never wait for the reader.
type Task struct {
	Ctx      context.Context
	Index    int
	Endpoint probe.Endpoint
	Strategy probe.Strategy
	// Timeout bounds the attempt on top of the strategy's own deadline.
	Timeout time.Duration
	Reply   chan<- Reply
}

// Reply is sent exactly once per accepted task. Suppressed replies belong to
// a cancelled run and carry no result.
type Reply struct {
	Index      int
	Result     probe.Result
	Suppressed bool
}

// NewExecutor creates a pool of concurrency workers. A nil limiter does not pace dials.
func NewExecutor(concurrency uint16, buffer uint32, limiter *rate.Limiter) *Executor {
	if concurrency == 0 {
		concurrency = 1
	}
	return &Executor{
		inputChan:   make(chan Task, buffer),
		close:       make(chan struct{}),
		concurrency: concurrency,
		limiter:     limiter,
	}
}

type Executor struct {
	concurrency uint16
	inputChan   chan Task
	limiter     *rate.Limiter

	workers    sync.WaitGroup
	closed     atomic.Bool
	inProgress atomic.Int64
	close      chan struct{}
}

func (e *Executor) Run() {
	for i := range e.concurrency {
		e.workers.Add(1)
		go func() {
			defer e.workers.Done()
			for task := range e.inputChan {
				log.Debug().Msgf("executor [%d] received task %d: %s", i, task.Index, task.Endpoint)
				task.Reply <- e.execute(task)
			}
		}()
	}
}

func (e *Executor) execute(task Task) Reply {
	suppressed := Reply{Index: task.Index, Suppressed: true}
	if task.Ctx.Err() != nil {
		return suppressed
	}
	if err := e.pace(task.Ctx); err != nil {
		if task.Ctx.Err() != nil {
			return suppressed
		}
		return Reply{Index: task.Index, Result: probe.Result{
			Endpoint: task.Endpoint,
			Outcome:  probe.Error,
			Err:      err.Error(),
		}}
	}
	probeCtx := task.Ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(task.Ctx, task.Timeout)
		defer cancel()
	}
	res := task.Strategy.Probe(probeCtx, task.Endpoint)
	if task.Ctx.Err() != nil {
		return suppressed
	}
	return Reply{Index: task.Index, Result: res}
}

// pace blocks until the limiter allows the next dial. Unlike rate.Limiter.Wait
// it gives up only when ctx is done, not when the token is due after ctx's deadline.
func (e *Executor) pace(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	r := e.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("dial rate limiter allows no dials")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// ExecuteProbe queues a task, blocking while the buffer is full.
func (e *Executor) ExecuteProbe(task Task) error {
	e.inProgress.Add(1)
	defer e.inProgress.Add(-1)
	if e.closed.Load() {
		return fmt.Errorf("executor already closed")
	}

	select {
	case e.inputChan <- task:
		return nil
	case <-task.Ctx.Done():
		return fmt.Errorf("failed to send task to executor: %w", task.Ctx.Err())
	case <-e.close:
		return fmt.Errorf("failed to send task to executor: closed")
	}
}

// Close stops accepting tasks and waits until queued ones are drained.
func (e *Executor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	close(e.close)
	for e.inProgress.Load() != 0 {
		// a sender that passed the closed check may still be in the select
		runtime.Gosched()
	}
	close(e.inputChan)
	e.workers.Wait()
}
