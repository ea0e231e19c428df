package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"gidi_ingest/internal/app"
	"gidi_ingest/internal/config"
	"gidi_ingest/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run the selected jobs once and exit")
	job := flag.String("job", "", "run only this job (news or venues)")
	flag.Parse()

	logger := app.SetupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger = app.SetupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	entries, err := a.Entries(*job)
	if err != nil {
		logger.Error("failed to select jobs", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(entries, scheduler.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}, cfg.Retry.RunTimeout, logger)

	if *once {
		failed := false
		for _, e := range entries {
			if err := sched.RunOnce(ctx, e.Job); err != nil {
				logger.Error("run failed", "job", e.Job.Name(), "error", err)
				failed = true
			}
		}
		if failed {
			a.Close()
			os.Exit(1)
		}
		return
	}

	logger.Info("starting ingester", "jobs", len(entries))

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		a.Close()
		os.Exit(1)
	}
}
