package metrics

import "time"

// Metrics receives the prober's counters: probe.outcome.<outcome> per result,
// probe.elapsed per dial and the probe.run.endpoints gauge per run.
type Metrics interface {
	Increment(string)
	Duration(string, time.Duration)
	Gauge(string, int)
}

// Noop drops everything, used when no statsd address is configured.
type Noop struct{}

func (Noop) Increment(string)               {}
func (Noop) Duration(string, time.Duration) {}
func (Noop) Gauge(string, int)              {}
