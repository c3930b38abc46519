package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Sh00ty/port-prober/internal/executor"
	"github.com/Sh00ty/port-prober/internal/metrics"
	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/internal/sink/console"
	"github.com/Sh00ty/port-prober/internal/sink/kafka"
	"github.com/Sh00ty/port-prober/internal/sink/postgres"
	"github.com/Sh00ty/port-prober/internal/sink/sender"
	"github.com/Sh00ty/port-prober/pkg/probe"
	"github.com/Sh00ty/port-prober/pkg/prober"
	"github.com/Sh00ty/port-prober/pkg/strategies"
)

type app struct {
	cfg     Config
	run     probe.Run
	prober  *prober.Prober
	out     *console.Writer
	sender  *sender.SenderController
	closers []func()
}

func newApp(ctx context.Context, cfg Config, stdout io.Writer) (*app, error) {
	run, err := buildRun(cfg)
	if err != nil {
		return nil, err
	}
	out, err := console.NewWriter(stdout, console.Format(cfg.OutputFormat))
	if err != nil {
		return nil, err
	}
	strategy, err := strategies.NewStrategy(probe.StrategyName(cfg.Strategy), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, run: run, out: out}

	var limiter *rate.Limiter
	if cfg.ExecutorDialRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ExecutorDialRate), 1)
	}
	exec := executor.NewExecutor(cfg.ExecutorConcurrency, cfg.ExecutorBuffer, limiter)
	exec.Run()
	a.closers = append(a.closers, exec.Close)

	var m metrics.Metrics = metrics.Noop{}
	if cfg.StatsdAddr != "" {
		statsd := metrics.NewStatsd(cfg.NodeName, "apps.prober.", cfg.StatsdAddr)
		a.closers = append(a.closers, func() { _ = statsd.Close() })
		m = statsd
	}
	a.prober = prober.New(strategy, exec, m)

	var sinks []sender.Sink
	if cfg.DatabaseHost != "" {
		repo, err := postgres.NewRepo(ctx, cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init postgres results repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, repo)
	}
	if cfg.QueueAddr != "" {
		pub := kafka.NewPublisher(cfg.QueueAddr, cfg.QueueResultsTopic)
		a.closers = append(a.closers, func() { _ = pub.Close() })
		sinks = append(sinks, pub)
	}
	a.sender = sender.NewSenderController(sinks, cfg.SinkRetryAttempts, cfg.SinkRetryDelay)
	return a, nil
}

// runOnce performs one independent probe run, prints it and hands it to the sinks.
func (a *app) runOnce(ctx context.Context) (models.Summary, error) {
	info, err := models.NewRunInfo(a.cfg.NodeName, a.run.Timeout)
	if err != nil {
		return models.Summary{}, err
	}
	a.out.Begin(info)

	results := make([]probe.Result, 0, len(a.run.Hosts)*len(a.run.Ports))
	emit := func(res probe.Result) {
		results = append(results, res)
		if err := a.out.Write(res); err != nil {
			log.Error().Err(err).Msg("failed to write result")
		}
	}
	if a.cfg.Ordered {
		err = a.prober.Stream(ctx, a.run, emit)
	} else {
		err = a.prober.Unordered(ctx, a.run, emit)
		results = probe.Reorder(a.run.Endpoints(), results)
	}
	info.FinishedAt = time.Now().UTC()
	summary := models.Summarize(results)
	if err != nil {
		return summary, fmt.Errorf("run %s interrupted after %d result(s): %w", info.ID, len(results), err)
	}
	if err := a.out.Summary(summary); err != nil {
		log.Error().Err(err).Msg("failed to write summary")
	}
	log.Info().Msgf("run %s finished in %s: %s", info.ID, info.FinishedAt.Sub(info.StartedAt), summary)

	if err := a.sender.Send(ctx, info, results); err != nil {
		log.Warn().Err(err).Msg("some sinks did not receive the run")
	}
	return summary, nil
}

func (a *app) Close() {
	if a.sender != nil && a.sender.Unsent() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.sender.Flush(ctx); err != nil {
			log.Error().Err(err).Msg("dropping unsent runs on shutdown")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
