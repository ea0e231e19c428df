package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gidi_ingest/internal/app"
	"gidi_ingest/internal/config"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/service"
)

const usage = `usage: maintenance <command> [flags]

commands:
  clear-all          delete every row of a kind
  delete-invalid     delete rows that fail the validity rules
  delete-duplicates  delete all but the newest row per natural key
  check              report row counts, fallback images and invalid rows

flags:
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	kind := fs.String("kind", "news", "record kind: news or venues")
	dryRun := fs.Bool("dry-run", false, "report what would be deleted without deleting")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	logger := app.SetupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = app.SetupLogger(cfg.LogLevel)

	k, err := parseKind(*kind)
	if err != nil {
		logger.Error("invalid kind", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var report *service.MaintenanceReport
	switch command {
	case service.OpClearAll:
		report, err = a.Maintenance.ClearAll(ctx, k, *dryRun)
	case service.OpDeleteInvalid:
		report, err = a.Maintenance.DeleteInvalid(ctx, k, *dryRun)
	case service.OpDeleteDuplicates:
		report, err = a.Maintenance.DeleteDuplicates(ctx, k, *dryRun)
	case service.OpCheck:
		report, err = a.Maintenance.Check(ctx, k)
	default:
		fs.Usage()
		a.Close()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("maintenance failed", "command", command, "error", err)
		a.Close()
		os.Exit(1)
	}

	fmt.Println(report.String())
}

// parseKind accepts the plural used on the command line.
func parseKind(s string) (domain.Kind, error) {
	switch s {
	case "news":
		return domain.KindNews, nil
	case "venues", "venue":
		return domain.KindVenue, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrConfiguration, s)
	}
}
