// Command sync-run performs a single MySideline sync and exits. It writes a
// sync log row like any scheduled run and refuses to start while another
// run is in progress.
//
// Usage:
//
//	sync-run [-config path]
//
// Exit codes: 0 = completed, 1 = failed or error, 2 = skipped.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/app"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadPath(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			logger.Error("migrate", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	syncer := app.NewSync(cfg.MySideline, pool, logger)
	res, err := syncer.Service.RunOnce(ctx, carnivalsync.TriggerCLI)
	if err != nil {
		logger.Error("sync run", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch res.Outcome {
	case carnivalsync.OutcomeCompleted:
		logger.Info("sync run completed",
			slog.Int64("sync_log_id", res.LogID()),
			slog.Int("created", res.Report.Created),
			slog.Int("updated", res.Report.Updated),
			slog.Int("processed", res.Report.Processed()),
		)
	case carnivalsync.OutcomeSkipped:
		logger.Warn("sync run skipped", slog.String("reason", res.Reason))
		os.Exit(2)
	default:
		logger.Error("sync run failed",
			slog.Int64("sync_log_id", res.LogID()),
			slog.String("reason", res.Reason),
		)
		os.Exit(1)
	}
}
