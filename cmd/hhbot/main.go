package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hhbot/internal/config"
	"hhbot/internal/notify"
	"hhbot/internal/pipeline"
	"hhbot/internal/report"
	"hhbot/internal/scheduler"
	"hhbot/internal/source/hh"
	"hhbot/internal/storage"
	"hhbot/internal/transport/telegram"
	"hhbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	// Secrets come from the environment; .env is a development convenience.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	boot := logx.NewConsole("info")

	mgr, err := config.NewManager(cfgPath, boot)
	if err != nil {
		return err
	}
	cfg := mgr.Current()

	log, logCloser, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	token := os.Getenv("HHBOT_TOKEN")
	if token == "" {
		return fmt.Errorf("HHBOT_TOKEN environment variable is required")
	}

	store, err := storage.Open(ctx, storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: config.DurationOr(cfg.Storage.BusyTimeout, 10*time.Second),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	source := hh.NewClient(hh.Config{
		BaseURL:        cfg.Source.BaseURL,
		PageSize:       cfg.Source.PageSize,
		Lookback:       config.DurationOr(cfg.Source.Lookback, 24*time.Hour),
		Politeness:     config.DurationOr(cfg.Source.Politeness, time.Second),
		RequestTimeout: config.DurationOr(cfg.Source.RequestTimeout, 15*time.Second),
	}, log.With(logx.String("comp", "source")))

	adapter, err := telegram.New(telegram.Config{
		Token:       token,
		PollTimeout: config.DurationOr(cfg.Telegram.PollTimeout, 10*time.Second),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	engine := notify.NewEngine(notify.Config{
		PendingLimit: cfg.Notify.PendingLimit,
		RatePerSec:   cfg.Notify.RatePerSec,
	}, store, adapter, log.With(logx.String("comp", "notify")))

	reporter := report.NewGenerator(store, log.With(logx.String("comp", "report")))
	adapter.RegisterCommands(store, reporter)

	pipe := pipeline.New(mgr, source, store, engine, log.With(logx.String("comp", "pipeline")))

	sched := scheduler.New(scheduler.Config{
		Interval:   config.DurationOr(cfg.Scheduler.Interval, 30*time.Minute),
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, pipe.RunCycle, log.With(logx.String("comp", "scheduler")))

	if err := mgr.Watch(ctx); err != nil {
		log.Warn("config watch disabled", logx.Err(err))
	}

	adapter.Start(ctx)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	log.Info("hhbot started",
		logx.String("config", cfgPath),
		logx.Int("regions", len(cfg.Source.Regions)))

	<-ctx.Done()
	sched.Stop()
	log.Info("hhbot stopped")
	return nil
}
