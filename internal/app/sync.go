package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/carnival"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/synclog"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/user"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/provider/mysideline"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

// SyncComponents is the wired MySideline sync: the orchestrator plus the
// shared fetcher, whose breaker state feeds health checks.
type SyncComponents struct {
	Service *carnivalsync.Service
	Fetcher *mysideline.Fetcher
}

// NewSync wires repositories, the fetcher and the reconciler into a sync
// service. Used by the server and the one-shot CLI.
func NewSync(cfg config.MySidelineConfig, pool *pgxpool.Pool, logger *slog.Logger) SyncComponents {
	txm := postgres.NewTxManager(pool)
	fetcher := mysideline.NewFetcher(cfg, logger)
	reconciler := reconcile.NewReconciler(logger, carnival.New(pool), txm)

	svc := carnivalsync.NewService(cfg, logger, fetcher, synclog.New(pool), user.New(pool), reconciler, txm)
	return SyncComponents{Service: svc, Fetcher: fetcher}
}
