// Command cleanup prunes finished MySideline sync logs. Running logs are left
// for the orphan reaper. Intended for an external cron job.
//
// Usage:
//
//	cleanup [-config path] [-retention 2160h]
//
// -retention overrides MYSIDELINE_LOG_RETENTION.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/synclog"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/app"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	retention := flag.Duration("retention", 0, "keep logs newer than this (default from config)")
	flag.Parse()

	cfg, err := config.LoadPath(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log).With(slog.String("cmd", "cleanup"))

	keep, err := retentionWindow(*retention, cfg.MySideline.LogRetention)
	if err != nil {
		logger.Error("invalid retention", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	cutoff := time.Now().UTC().Add(-keep)

	deleted, err := synclog.New(pool).DeleteFinishedBefore(ctx, domain.SyncTypeMySideline, cutoff)
	if err != nil {
		logger.Error("sync log cleanup failed",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		pool.Close()
		os.Exit(1)
	}

	logger.Info("sync log cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Duration("retention", keep),
		slog.Time("cutoff", cutoff),
	)
}

// retentionWindow prefers a positive flag value over the configured one.
func retentionWindow(flagValue, configured time.Duration) (time.Duration, error) {
	switch {
	case flagValue < 0:
		return 0, fmt.Errorf("retention must be positive, got %s", flagValue)
	case flagValue > 0:
		return flagValue, nil
	default:
		return configured, nil
	}
}
