package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

type stored struct {
	run      models.RunID
	position int
	endpoint probe.Endpoint
}

type fakeSink struct {
	name    string
	// fail holds how many calls fail, each failing call stores at most partial results
	fail    int
	partial int
	calls   int
	stored  []stored
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Send(_ context.Context, info models.RunInfo, results []probe.Result, offset int) (int, error) {
	s.calls++
	n := len(results)
	var err error
	if s.fail > 0 {
		s.fail--
		n = min(s.partial, n)
		err = errors.New("sink down")
	}
	for i, res := range results[:n] {
		s.stored = append(s.stored, stored{info.ID, offset + i, res.Endpoint})
	}
	return n, err
}

func resultsFor(ports ...int) []probe.Result {
	out := make([]probe.Result, 0, len(ports))
	for _, p := range ports {
		out = append(out, probe.Result{Endpoint: probe.Endpoint{Host: "h", Port: p}})
	}
	return out
}

func TestSendDeliversToAllSinks(t *testing.T) {
	a, b := &fakeSink{name: "a"}, &fakeSink{name: "b"}
	c := NewSenderController([]Sink{a, b}, 3, 0)

	require.NoError(t, c.Send(context.Background(), models.RunInfo{ID: "r1"}, resultsFor(1, 2)))
	assert.Len(t, a.stored, 2)
	assert.Len(t, b.stored, 2)
	assert.Zero(t, c.Unsent())
}

func TestSendRetriesRemainderOnly(t *testing.T) {
	s := &fakeSink{name: "s", fail: 2, partial: 1}
	c := NewSenderController([]Sink{s}, 3, 0)

	require.NoError(t, c.Send(context.Background(), models.RunInfo{ID: "r1"}, resultsFor(1, 2, 3)))
	assert.Equal(t, 3, s.calls)
	assert.Equal(t, []stored{
		{"r1", 0, probe.Endpoint{Host: "h", Port: 1}},
		{"r1", 1, probe.Endpoint{Host: "h", Port: 2}},
		{"r1", 2, probe.Endpoint{Host: "h", Port: 3}},
	}, s.stored)
}

func TestSendQueuesUnsentAndFlushes(t *testing.T) {
	s := &fakeSink{name: "s", fail: 3}
	c := NewSenderController([]Sink{s}, 3, 0)

	err := c.Send(context.Background(), models.RunInfo{ID: "r1"}, resultsFor(1))
	require.Error(t, err)
	assert.Equal(t, 1, c.Unsent())

	require.NoError(t, c.Send(context.Background(), models.RunInfo{ID: "r2"}, resultsFor(2)))
	assert.Zero(t, c.Unsent())
	require.Len(t, s.stored, 2)
	assert.Equal(t, models.RunID("r1"), s.stored[0].run)
	assert.Equal(t, models.RunID("r2"), s.stored[1].run)

	s.fail = 3
	require.Error(t, c.Send(context.Background(), models.RunInfo{ID: "r3"}, resultsFor(3)))
	require.NoError(t, c.Flush(context.Background()))
	assert.Zero(t, c.Unsent())
}
