package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vrischmann/envconfig"

	"github.com/Sh00ty/port-prober/internal/scheduler"
)

const (
	exitOK          = 0
	exitInputError  = 1
	exitUnreachable = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	appCfg := Config{}
	err := envconfig.Init(&appCfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to read app config")
		return exitInputError
	}
	log.Logger = log.Level(loggerLevelFromString(appCfg.LoggerLevel))
	if appCfg.NodeName == "" {
		appCfg.NodeName, _ = os.Hostname()
	}

	a, err := newApp(ctx, appCfg, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("failed to init prober")
		return exitInputError
	}
	defer a.Close()

	if appCfg.Interval > 0 {
		return watch(ctx, a)
	}

	summary, err := a.runOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Err(err).Msg("interrupted")
			return exitInterrupted
		}
		log.Error().Err(err).Msg("probe run failed")
		return exitInputError
	}
	if appCfg.FailOnUnreachable && summary.Unreachable() > 0 {
		return exitUnreachable
	}
	return exitOK
}

func watch(ctx context.Context, a *app) int {
	log.Warn().Msgf("watching %d host(s) x %d port(s) every %s", len(a.run.Hosts), len(a.run.Ports), a.cfg.Interval)

	serverClose := startProbeServer(a.cfg.ProbeServerAddr)
	defer serverClose()

	sched := scheduler.New(a.cfg.Interval, func(ctx context.Context) error {
		_, err := a.runOnce(ctx)
		return err
	})
	if err := sched.Run(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler stopped")
		return exitInputError
	}
	return exitOK
}

func startProbeServer(addr string) func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	srv := http.Server{
		Handler:           mux,
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start http server")
		}
	}()
	return func() {
		_ = srv.Close()
	}
}
