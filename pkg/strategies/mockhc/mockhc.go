package mockhc

import (
	"context"
	"errors"
	"time"

	"github.com/Sh00ty/port-prober/pkg/probe"
)

type MockSettings struct {
	Delay   time.Duration `json:"delay"`
	Outcome probe.Outcome `json:"outcome"`
	// Delays overrides Delay per endpoint.
	Delays map[probe.Endpoint]time.Duration `json:"-"`
}

// MockStrategy answers with a fixed outcome after a delay, without touching the network.
type MockStrategy struct {
	delay   time.Duration
	delays  map[probe.Endpoint]time.Duration
	outcome probe.Outcome
}

func NewMockStrategy(settings *MockSettings) *MockStrategy {
	return &MockStrategy{
		delay:   settings.Delay,
		delays:  settings.Delays,
		outcome: settings.Outcome,
	}
}

var errMocked = errors.New("mocked failure")

func (m *MockStrategy) Probe(ctx context.Context, endpoint probe.Endpoint) probe.Result {
	delay := m.delay
	if d, ok := m.delays[endpoint]; ok {
		delay = d
	}

	started := time.Now()
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return probe.NewResult(endpoint, time.Since(started), ctx.Err())
	case <-timer.C:
	}

	res := probe.Result{
		Endpoint: endpoint,
		Outcome:  m.outcome,
		Elapsed:  time.Since(started),
	}
	if m.outcome != probe.Connected {
		res.Err = errMocked.Error()
	}
	return res
}
