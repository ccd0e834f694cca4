package carnivalsync

import (
	"context"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 200

	// DefaultStatsWindow is the trailing window used when none is given.
	DefaultStatsWindow = 30 * 24 * time.Hour
)

// Status is a point-in-time view of the sync for the admin API.
type Status struct {
	Enabled      bool
	UseMock      bool
	URL          string
	Schedule     string
	NextRun      *time.Time
	BreakerState string
	Running      bool
	LastRun      *domain.SyncLog
}

// RecentLogs returns the newest sync logs first. limit is clamped to
// [1, 200] and defaults to 20.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	limit = min(limit, maxLogLimit)
	return s.logs.ListRecent(ctx, domain.SyncTypeMySideline, limit)
}

// Stats aggregates sync logs started within the trailing window.
func (s *Service) Stats(ctx context.Context, window time.Duration) (domain.SyncStats, error) {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return s.logs.Stats(ctx, domain.SyncTypeMySideline, s.now().UTC().Add(-window))
}

// Status reports configuration, scheduler and breaker state plus the most
// recent log.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st := Status{
		Enabled:      s.cfg.Enabled,
		UseMock:      s.cfg.UseMock,
		URL:          s.cfg.URL,
		Schedule:     s.cfg.Schedule,
		BreakerState: s.fetcher.BreakerState(),
	}
	if s.entryID != 0 {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}

	logs, err := s.logs.ListRecent(ctx, domain.SyncTypeMySideline, 1)
	if err != nil {
		return Status{}, err
	}
	if len(logs) > 0 {
		st.LastRun = &logs[0]
		st.Running = logs[0].Status == domain.SyncStatusRunning
	}
	return st, nil
}
