package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

// Sink stores results[0:] of a run as run positions offset, offset+1, ...
// and reports how many leading results were stored.
type Sink interface {
	Name() string
	Send(ctx context.Context, info models.RunInfo, results []probe.Result, offset int) (int, error)
}

type batch struct {
	info    models.RunInfo
	results []probe.Result
	offset  int
}

func NewSenderController(sinks []Sink, attempts uint, delay time.Duration) *SenderController {
	if attempts == 0 {
		attempts = 3
	}
	return &SenderController{
		sinks:       sinks,
		attempts:    attempts,
		delay:       delay,
		unsentGuard: &sync.Mutex{},
		unsent:      make(map[string][]batch),
	}
}

// SenderController hands finished runs to every sink. A run that could not be
// delivered stays queued per sink and goes out before the next run.
type SenderController struct {
	sinks    []Sink
	attempts uint
	delay    time.Duration

	unsentGuard *sync.Mutex
	unsent      map[string][]batch
}

func (c *SenderController) Send(ctx context.Context, info models.RunInfo, results []probe.Result) error {
	c.unsentGuard.Lock()
	defer c.unsentGuard.Unlock()

	var errs []error
	for _, sink := range c.sinks {
		queue := append(c.unsent[sink.Name()], batch{info: info, results: results})
		c.unsent[sink.Name()] = c.drain(ctx, sink, queue)
		if n := len(c.unsent[sink.Name()]); n > 0 {
			errs = append(errs, fmt.Errorf("sink %s: %d run(s) left unsent", sink.Name(), n))
		}
	}
	return errors.Join(errs...)
}

// Flush retries everything still queued.
func (c *SenderController) Flush(ctx context.Context) error {
	c.unsentGuard.Lock()
	defer c.unsentGuard.Unlock()

	var errs []error
	for _, sink := range c.sinks {
		c.unsent[sink.Name()] = c.drain(ctx, sink, c.unsent[sink.Name()])
		if n := len(c.unsent[sink.Name()]); n > 0 {
			errs = append(errs, fmt.Errorf("sink %s: %d run(s) left unsent", sink.Name(), n))
		}
	}
	return errors.Join(errs...)
}

func (c *SenderController) Unsent() int {
	c.unsentGuard.Lock()
	defer c.unsentGuard.Unlock()

	total := 0
	for _, queue := range c.unsent {
		total += len(queue)
	}
	return total
}

// drain sends queued batches in order and returns what is left,
// stopping at the first batch that fails.
func (c *SenderController) drain(ctx context.Context, sink Sink, queue []batch) []batch {
	for len(queue) > 0 {
		b := &queue[0]
		err := retry.Do(
			func() error {
				done, err := sink.Send(ctx, b.info, b.results, b.offset)
				b.results = b.results[done:]
				b.offset += done
				return err
			},
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.delay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			log.Error().Err(err).Msgf("failed to send run %s to %s, put it into unsent queue", b.info.ID, sink.Name())
			return queue
		}
		log.Debug().Msgf("run %s delivered to %s", b.info.ID, sink.Name())
		queue = queue[1:]
	}
	return nil
}
