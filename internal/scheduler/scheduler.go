package scheduler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

type RunFunc func(ctx context.Context) error

// Scheduler starts an independent run right away and then once per interval.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
}

func New(interval time.Duration, run RunFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := s.run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("scheduler: got run error")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(addIntervalWithJitter(s.interval)):
		}
	}
}

// jitter is at most a tenth of the interval
func addIntervalWithJitter(interval time.Duration) time.Duration {
	return interval + jit(interval/10)
}

func jit(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Uint64N(uint64(limit)))
}
