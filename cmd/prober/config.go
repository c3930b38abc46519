package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sh00ty/port-prober/internal/presets"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

// Config is read from the environment. PROBE_TIMEOUT and PROBE_INTERVAL are
// Go durations, e.g. 500ms or 1m.
type Config struct {
	NodeName    string `envconfig:"NODE_NAME,optional"`
	LoggerLevel string `envconfig:"LOGGER_LEVEL,default=warn"`

	Hosts             []string      `envconfig:"PROBE_HOSTS,optional"`
	Ports             []int         `envconfig:"PROBE_PORTS,optional"`
	Preset            string        `envconfig:"PROBE_PRESET,optional"`
	Timeout           time.Duration `envconfig:"PROBE_TIMEOUT,default=500ms"`
	Strategy          string        `envconfig:"PROBE_STRATEGY,default=tcp"`
	Ordered           bool          `envconfig:"PROBE_ORDERED,default=true"`
	Interval          time.Duration `envconfig:"PROBE_INTERVAL,optional"`
	FailOnUnreachable bool          `envconfig:"PROBE_FAIL_ON_UNREACHABLE,optional"`

	ExecutorConcurrency uint16  `envconfig:"EXECUTOR_CONCURRENCY,default=64"`
	ExecutorBuffer      uint32  `envconfig:"EXECUTOR_BUFFER,default=256"`
	ExecutorDialRate    float64 `envconfig:"EXECUTOR_DIAL_RATE,optional"`

	OutputFormat string `envconfig:"OUTPUT_FORMAT,default=text"`
	StatsdAddr   string `envconfig:"STATSD_ADDR,optional"`

	DatabaseHost     string `envconfig:"DATABASE_HOST,optional"`
	DatabaseUser     string `envconfig:"DATABASE_USER,optional"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD,optional"`
	DatabasePort     uint16 `envconfig:"DATABASE_PORT,default=5432"`

	QueueAddr         string `envconfig:"QUEUE_ADDR,optional"`
	QueueResultsTopic string `envconfig:"QUEUE_RESULTS_TOPIC,default=probe-results"`

	SinkRetryAttempts uint          `envconfig:"SINK_RETRY_ATTEMPTS,default=3"`
	SinkRetryDelay    time.Duration `envconfig:"SINK_RETRY_DELAY,default=200ms"`

	ProbeServerAddr string `envconfig:"PROBE_SERVER_ADDR,default=0.0.0.0:8080"`
}

func loggerLevelFromString(level string) zerolog.Level {
	level = strings.ToLower(level)
	switch level {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

// buildRun merges the preset targets with the explicit ones. Preset hosts
// come first, duplicates are kept.
func buildRun(cfg Config) (probe.Run, error) {
	run := probe.Run{Timeout: cfg.Timeout}
	if cfg.Preset != "" {
		preset, err := presets.Lookup(cfg.Preset)
		if err != nil {
			return probe.Run{}, err
		}
		run.Hosts = preset.Hosts
		run.Ports = preset.Ports
	}
	for _, host := range cfg.Hosts {
		if host = strings.TrimSpace(host); host != "" {
			run.Hosts = append(run.Hosts, host)
		}
	}
	run.Ports = append(run.Ports, cfg.Ports...)
	if err := run.Validate(); err != nil {
		return probe.Run{}, fmt.Errorf("bad targets: %w", err)
	}
	return run, nil
}
