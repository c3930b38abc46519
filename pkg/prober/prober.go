// Package prober fans a probe run out over a bounded executor and reports
// exactly one result per endpoint.
package prober

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Sh00ty/port-prober/internal/executor"
	"github.com/Sh00ty/port-prober/internal/metrics"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

type TaskExecutor interface {
	ExecuteProbe(task executor.Task) error
}

type Prober struct {
	strategy probe.Strategy
	executor TaskExecutor
	metrics  metrics.Metrics
}

func New(strategy probe.Strategy, executor TaskExecutor, m metrics.Metrics) *Prober {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Prober{
		strategy: strategy,
		executor: executor,
		metrics:  m,
	}
}

// Run probes every endpoint of run and returns results in host-major,
// port-minor order.
func (p *Prober) Run(ctx context.Context, run probe.Run) ([]probe.Result, error) {
	results := make([]probe.Result, 0, len(run.Hosts)*len(run.Ports))
	err := p.Stream(ctx, run, func(res probe.Result) {
		results = append(results, res)
	})
	return results, err
}

// Stream calls emit once per endpoint in submission order, as soon as all
// earlier endpoints are done. On cancellation outstanding results are
// dropped and ctx.Err() is returned.
func (p *Prober) Stream(ctx context.Context, run probe.Run, emit func(probe.Result)) error {
	total := len(run.Hosts) * len(run.Ports)
	pending := make(map[int]probe.Result)
	next := 0
	return p.fanOut(ctx, run, func(index int, res probe.Result) {
		pending[index] = res
		for next < total {
			ready, ok := pending[next]
			if !ok {
				return
			}
			delete(pending, next)
			emit(ready)
			next++
		}
	})
}

// Unordered calls emit in completion order. Results are tagged with their
// endpoint, so callers can rebuild the order when needed.
func (p *Prober) Unordered(ctx context.Context, run probe.Run, emit func(probe.Result)) error {
	return p.fanOut(ctx, run, func(_ int, res probe.Result) {
		emit(res)
	})
}

func (p *Prober) fanOut(ctx context.Context, run probe.Run, onResult func(int, probe.Result)) error {
	if err := run.Validate(); err != nil {
		return err
	}
	endpoints := run.Endpoints()
	p.metrics.Gauge("probe.run.endpoints", len(endpoints))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan executor.Reply, len(endpoints))
	submitErr := make(chan error, 1)
	go func() {
		for i, endpoint := range endpoints {
			err := p.executor.ExecuteProbe(executor.Task{
				Ctx:      runCtx,
				Index:    i,
				Endpoint: endpoint,
				Strategy: p.strategy,
				Timeout:  run.Timeout,
				Reply:    replies,
			})
			if err != nil {
				submitErr <- err
				return
			}
		}
	}()

	for received := 0; received < len(endpoints); {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-submitErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to submit probe: %w", err)
		case reply := <-replies:
			if reply.Suppressed {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("result %d for %s suppressed on a live run", reply.Index, endpoints[reply.Index])
			}
			received++
			p.record(reply.Result)
			onResult(reply.Index, reply.Result)
		}
	}
	return nil
}

func (p *Prober) record(res probe.Result) {
	log.Debug().Msgf("probe %s: %s in %s", res.Endpoint, res.Outcome, res.Elapsed)
	p.metrics.Increment("probe.outcome." + res.Outcome.String())
	p.metrics.Duration("probe.elapsed", res.Elapsed)
}
