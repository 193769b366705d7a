package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"
	"github.com/worldline-go/hardloop"

	"github.com/rakunlabs/srl/internal/config"
	"github.com/rakunlabs/srl/internal/diag"
	"github.com/rakunlabs/srl/internal/fixture"
	"github.com/rakunlabs/srl/internal/ir"
	"github.com/rakunlabs/srl/internal/rtasm"
)

var (
	name    = "srlc"
	version = "v0.0.0"
)

func main() {
	config.Service = name + "/" + version

	into.Init(run,
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

// ///////////////////////////////////////////////////////////////////

func run(ctx context.Context) error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s <check|run|demo> [-config path]", name)
	}

	sub := os.Args[1]
	fs := flag.NewFlagSet(sub, flag.ContinueOnError)
	configPath := fs.String("config", name, "configuration name/path")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch sub {
	case "check":
		return runCheck(cfg)
	case "run":
		return runRuntime(ctx, cfg)
	case "demo":
		return runDemo(ctx, cfg)
	default:
		return fmt.Errorf("unknown subcommand %q (want check, run, or demo)", sub)
	}
}

// runCheck lowers every configured service fixture through NR->MIR->LIR
// (rtasm.Compile) and reports diagnostics only. It does not run CSyn or
// SSyn and never assembles a Runtime.
func runCheck(cfg *config.Config) error {
	nodes, services, err := loadFixtures(cfg)
	if err != nil {
		return err
	}

	col := diag.New()
	if _, err := rtasm.Compile(rtasm.Program{Nodes: nodes, Services: services}, col); err != nil {
		return err
	}

	for _, svc := range services {
		slog.Info("service ok", "service", svc.Name, "root", svc.Root)
	}

	return nil
}

// runRuntime assembles the Runtime and drives it against a YAML-scripted
// event fixture, printing every emitted output.
func runRuntime(ctx context.Context, cfg *config.Config) error {
	nodes, services, err := loadFixtures(cfg)
	if err != nil {
		return err
	}

	if cfg.EventFixture == "" {
		return fmt.Errorf("run requires event_fixture to be set")
	}

	col := diag.New()
	reg, err := rtasm.Compile(rtasm.Program{Nodes: nodes, Services: services}, col)
	if err != nil {
		return err
	}

	rt, err := rtasm.Assemble(reg, services, printSink{})
	if err != nil {
		return fmt.Errorf("assemble runtime: %w", err)
	}

	initInstant := time.Now().UTC()
	events, err := rtasm.LoadEvents(cfg.EventFixture, initInstant)
	if err != nil {
		return fmt.Errorf("load event fixture: %w", err)
	}

	return rt.RunLoop(ctx, initInstant, events)
}

// cronRunner is satisfied by hardloop's unexported cron-job type (returned
// by hardloop.NewCron), used here to store it without naming the
// unexported struct.
type cronRunner interface {
	Start(ctx context.Context) error
	Stop()
}

// runDemo replays EventFixture against a freshly assembled Runtime on a
// recurring schedule (cfg.DemoCron), standing in for a live upstream
// producer so the compiled services can be exercised continuously rather
// than once. Every tick starts from a fresh Runtime: each tick's Services
// see their own init_instant and no state carries across ticks.
func runDemo(ctx context.Context, cfg *config.Config) error {
	nodes, services, err := loadFixtures(cfg)
	if err != nil {
		return err
	}
	if cfg.EventFixture == "" {
		return fmt.Errorf("demo requires event_fixture to be set")
	}

	col := diag.New()
	reg, err := rtasm.Compile(rtasm.Program{Nodes: nodes, Services: services}, col)
	if err != nil {
		return err
	}

	tick := func(tickCtx context.Context) error {
		rt, err := rtasm.Assemble(reg, services, printSink{})
		if err != nil {
			return fmt.Errorf("assemble runtime: %w", err)
		}

		initInstant := time.Now().UTC()
		events, err := rtasm.LoadEvents(cfg.EventFixture, initInstant)
		if err != nil {
			return fmt.Errorf("load event fixture: %w", err)
		}

		return rt.RunLoop(tickCtx, initInstant, events)
	}

	cronJob, err := hardloop.NewCron(hardloop.Cron{
		Name:  "demo",
		Specs: []string{cfg.DemoCron},
		Func:  tick,
	})
	if err != nil {
		return fmt.Errorf("create demo cron runner: %w", err)
	}

	var runner cronRunner = cronJob
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start demo cron runner: %w", err)
	}
	defer runner.Stop()

	slog.Info("demo started", "cron", cfg.DemoCron, "event_fixture", cfg.EventFixture)
	<-ctx.Done()
	return ctx.Err()
}

func loadFixtures(cfg *config.Config) ([]ir.Node, []ir.Service, error) {
	var nodes []ir.Node
	var services []ir.Service

	for _, path := range cfg.Services {
		fileNodes, svc, err := fixture.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixture %s: %w", path, err)
		}
		nodes = append(nodes, fileNodes...)
		services = append(services, svc)
	}

	return nodes, services, nil
}

// printSink logs every emitted output message at Info level; a real
// deployment would route these to the upstream transport instead.
type printSink struct{}

func (printSink) Output(service string, msg ir.OutputMsg) error {
	slog.Info("output",
		"service", service,
		"flow", msg.Flow,
		"value", msg.Value,
		"instant", msg.Instant.Format(time.RFC3339Nano),
		"trace", msg.Trace,
	)
	return nil
}
