package carnivalsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// Start reaps orphaned logs, registers the cron job and schedules one
// opportunistic run after the startup delay. Scheduled ticks no-op while
// sync is disabled, so the job is registered regardless.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.ReapOrphans(ctx); err != nil {
		return fmt.Errorf("reap orphaned sync logs: %w", err)
	}

	id, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunScheduled(s.runsCtx); err != nil {
			s.log.Error("scheduled sync run", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("register sync schedule %q: %w", s.cfg.Schedule, err)
	}
	s.entryID = id
	s.cron.Start()

	s.log.InfoContext(ctx, "sync scheduler started",
		slog.String("schedule", s.cfg.Schedule),
		slog.Bool("enabled", s.cfg.Enabled),
		slog.Time("next_run", s.cron.Entry(id).Next),
	)

	if s.cfg.Enabled {
		s.wg.Add(1)
		go s.startupRun()
	}
	return nil
}

func (s *Service) startupRun() {
	defer s.wg.Done()

	timer := time.NewTimer(s.cfg.StartupDelay)
	defer timer.Stop()

	select {
	case <-s.runsCtx.Done():
		return
	case <-s.stopping:
		return
	case <-timer.C:
	}

	if _, err := s.RunOnce(s.runsCtx, TriggerStartup); err != nil {
		s.log.Error("startup sync run", slog.String("error", err.Error()))
	}
}

// Stop halts scheduling and waits for in-flight runs. If ctx expires first
// the runs are canceled; each still writes its terminal log before Stop
// returns.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopping) })
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelRuns()
		return nil
	case <-ctx.Done():
	}

	s.log.Warn("sync runs still in flight at shutdown, canceling")
	s.cancelRuns()
	select {
	case <-done:
	case <-time.After(closeTimeout):
	}
	return ctx.Err()
}

// ReapOrphans marks running logs older than the staleness threshold as
// failed with reason orphaned. They were left by a process that died
// mid-run and would otherwise block single-flight forever.
func (s *Service) ReapOrphans(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.cfg.StalenessThreshold)
	orphans, err := s.logs.FindOrphanRunning(ctx, domain.SyncTypeMySideline, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, o := range orphans {
		err := s.logs.MarkFailed(ctx, o.ID, ReasonOrphaned, s.now().UTC())
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Finished between the lookup and the update.
			continue
		}
		if err != nil {
			return reaped, fmt.Errorf("mark sync log %d orphaned: %w", o.ID, err)
		}
		reaped++
		s.log.WarnContext(ctx, "orphaned sync log reaped",
			slog.Int64("sync_log_id", o.ID),
			slog.Time("started_at", o.StartedAt),
		)
	}
	return reaped, nil
}
