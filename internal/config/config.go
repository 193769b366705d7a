// Package config loads a deployment's configuration: which service
// fixtures to run, the log level, and the telemetry endpoint, via a
// struct-tag driven loader.
package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
	"github.com/rakunlabs/tell"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Service is the module-scoped service identifier used as the env-prefix
// root.
var Service = "srl"

// Config describes one deployment: the set of service fixture files to
// load and assemble into a Runtime, plus the ambient stack (log level,
// telemetry).
type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	// Services lists the paths to service-fixture YAML files; each fixture
	// declares one ir.Service plus its root node graph.
	Services []string `cfg:"services"`

	// EventFixture, if set, points to a YAML file scripting the sequence
	// of input events `cmd/srlc run`/`cmd/srlc demo` replays through the
	// assembled Runtime.
	EventFixture string `cfg:"event_fixture"`

	// DemoCron, if set, is a cron spec (e.g. "@every 10s") `cmd/srlc demo`
	// uses to replay EventFixture against a fresh Runtime on a recurring
	// schedule via github.com/worldline-go/hardloop.
	DemoCron string `cfg:"demo_cron" default:"@every 10s"`

	Telemetry tell.Config `cfg:"telemetry,noprefix"`
}

// ServiceTiming is the human-authored form of a service's delay/timeout
// parameters, as they appear in a service fixture file: "10ms", "500ms".
// internal/fixture does not use this type: its ServiceLit carries the same
// two fields and parses them into ir.Duration via ParseDuration below.
type ServiceTiming struct {
	Delay   string `cfg:"delay" yaml:"delay"`
	Timeout string `cfg:"timeout" yaml:"timeout"`
}

// ParseDuration parses a human-authored duration string ("10ms", "500ms",
// "1m30s") via github.com/xhit/go-str2duration/v2, which, unlike
// time.ParseDuration, also accepts day/week/month/year units.
func ParseDuration(s string) (int64, error) {
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: parse duration %q: %w", s, err)
	}
	return int64(d), nil
}

// Load reads the deployment config from path using chu's loader stack
// (environment overrides via loaderenv, prefixed with SRL_), sets the
// global log level, and logs the resolved configuration.
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("SRL_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
