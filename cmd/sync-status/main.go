// Command sync-status prints the MySideline sync configuration, database
// reachability, recent sync logs and windowed statistics.
//
// Usage:
//
//	sync-status [-config path] [-n 10] [-window 720h] [-json]
//
// Exit codes: 0 = success, 1 = configuration or database error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/synclog"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/app"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/transport/rest"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	n := flag.Int("n", 10, "number of recent sync logs to show")
	window := flag.Duration("window", 720*time.Hour, "statistics window")
	asJSON := flag.Bool("json", false, "emit JSON")
	flag.Parse()

	cfg, err := config.LoadPath(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep := report{Config: newConfigView(cfg.MySideline)}
	code := collect(ctx, cfg.Database, *n, *window, &rep, logger)

	if *asJSON {
		err = writeJSON(os.Stdout, rep)
	} else {
		err = writeText(os.Stdout, rep)
	}
	if err != nil {
		logger.Error("write report", slog.String("error", err.Error()))
		code = 1
	}
	os.Exit(code)
}

type logStore interface {
	TableExists(ctx context.Context) (bool, error)
	ListRecent(ctx context.Context, syncType domain.SyncType, limit int) ([]domain.SyncLog, error)
	Stats(ctx context.Context, syncType domain.SyncType, since time.Time) (domain.SyncStats, error)
}

func collect(ctx context.Context, dbCfg config.DatabaseConfig, n int, window time.Duration, rep *report, logger *slog.Logger) int {
	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		rep.Database.Error = err.Error()
		logger.Error("connect to database", slog.String("error", err.Error()))
		return 1
	}
	defer pool.Close()
	rep.Database.Reachable = true

	if err := fill(ctx, synclog.New(pool), n, window, time.Now(), rep); err != nil {
		rep.Database.Error = err.Error()
		logger.Error("read sync logs", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// fill reads logs and stats into rep. A missing sync_logs table is an error.
func fill(ctx context.Context, store logStore, n int, window time.Duration, now time.Time, rep *report) error {
	exists, err := store.TableExists(ctx)
	if err != nil {
		return fmt.Errorf("check sync_logs: %w", err)
	}
	rep.Database.TableExists = exists
	if !exists {
		return fmt.Errorf("sync_logs table is missing; run migrations")
	}

	logs, err := store.ListRecent(ctx, domain.SyncTypeMySideline, max(n, 1))
	if err != nil {
		return fmt.Errorf("list sync logs: %w", err)
	}
	rep.Logs = make([]rest.SyncLogView, len(logs))
	for i, l := range logs {
		rep.Logs[i] = rest.NewSyncLogView(l)
	}

	stats, err := store.Stats(ctx, domain.SyncTypeMySideline, now.UTC().Add(-window))
	if err != nil {
		return fmt.Errorf("sync stats: %w", err)
	}
	sv := rest.NewSyncStatsView(stats, window)
	rep.Stats = &sv
	return nil
}

type configView struct {
	Enabled       bool   `json:"enabled"`
	UseMock       bool   `json:"useMock"`
	URL           string `json:"url"`
	Timeout       string `json:"timeout"`
	RetryAttempts int    `json:"retryAttempts"`
	Schedule      string `json:"schedule"`
}

func newConfigView(c config.MySidelineConfig) configView {
	return configView{
		Enabled:       c.Enabled,
		UseMock:       c.UseMock,
		URL:           c.URL,
		Timeout:       c.Timeout.String(),
		RetryAttempts: c.RetryAttempts,
		Schedule:      c.Schedule,
	}
}

type databaseView struct {
	Reachable   bool   `json:"reachable"`
	TableExists bool   `json:"syncLogsTable"`
	Error       string `json:"error,omitempty"`
}

type report struct {
	Config   configView          `json:"config"`
	Database databaseView        `json:"database"`
	Logs     []rest.SyncLogView  `json:"logs"`
	Stats    *rest.SyncStatsView `json:"stats,omitempty"`
}

func writeJSON(w io.Writer, rep report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
