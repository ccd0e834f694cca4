// Package carnivalsync orchestrates MySideline carnival sync runs: it
// schedules them, enforces single-flight through the sync log, drives
// fetch, parse and reconcile, and writes exactly one terminal audit row per
// run.
package carnivalsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/provider"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/parser"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

// ---------------------------------------------------------------------------
// Consumer interfaces
// ---------------------------------------------------------------------------

type fetcher interface {
	Fetch(ctx context.Context) (*provider.RawPayload, error)
	BreakerState() string
}

type syncLogRepo interface {
	Open(ctx context.Context, syncType domain.SyncType, startedAt time.Time, metadata map[string]any) (*domain.SyncLog, error)
	Close(ctx context.Context, id int64, outcome domain.SyncOutcome) (*domain.SyncLog, error)
	MarkFailed(ctx context.Context, id int64, reason string, at time.Time) error
	FindOrphanRunning(ctx context.Context, syncType domain.SyncType, olderThan time.Time) ([]domain.SyncLog, error)
	ListRecent(ctx context.Context, syncType domain.SyncType, limit int) ([]domain.SyncLog, error)
	Stats(ctx context.Context, syncType domain.SyncType, since time.Time) (domain.SyncStats, error)
}

type userRepo interface {
	EnsureSystemUser(ctx context.Context) (*domain.User, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, batch []domain.CanonicalCarnival, proxyUserID int64) (reconcile.Report, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// closeTimeout bounds the terminal sync log write, which runs detached from
// the run budget.
const closeTimeout = 10 * time.Second

// Service is the sync orchestrator.
type Service struct {
	cfg        config.MySidelineConfig
	log        *slog.Logger
	fetcher    fetcher
	logs       syncLogRepo
	users      userRepo
	reconciler reconciler
	tx         txManager

	parse func(provider.RawPayload) (parser.Result, error)
	now   func() time.Time

	cron    *cron.Cron
	entryID cron.EntryID

	// runsCtx parents every background run so Stop can abandon them.
	runsCtx    context.Context
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
	stopping   chan struct{}
	stopOnce   sync.Once
}

// NewService creates the orchestrator. The scheduler is not started until
// Start is called.
func NewService(
	cfg config.MySidelineConfig,
	logger *slog.Logger,
	fetcher fetcher,
	logs syncLogRepo,
	users userRepo,
	reconciler reconciler,
	tx txManager,
) *Service {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	runsCtx, cancel := context.WithCancel(context.Background())

	return &Service{
		cfg:        cfg,
		log:        logger.With("service", "carnivalsync"),
		fetcher:    fetcher,
		logs:       logs,
		users:      users,
		reconciler: reconciler,
		tx:         tx,
		parse:      parser.Parse,
		now:        time.Now,
		cron:       cron.New(cron.WithLocation(loc)),
		runsCtx:    runsCtx,
		cancelRuns: cancel,
		stopping:   make(chan struct{}),
	}
}
