package carnivalsync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// TriggerManual starts an operator-requested run. The log is opened before
// returning so the caller learns started(logID) or skipped(alreadyRunning)
// immediately; the run itself continues in the background and outlives ctx.
func (s *Service) TriggerManual(ctx context.Context) (TriggerResult, error) {
	if !s.cfg.Enabled && !s.cfg.AllowManualWhenDisabled {
		syncRuns.WithLabelValues(string(TriggerAdmin), string(OutcomeDisabled)).Inc()
		return TriggerResult{Status: TriggerDisabled}, nil
	}

	open, err := s.open(ctx, TriggerAdmin)
	if errors.Is(err, domain.ErrAlreadyRunning) {
		s.skipped(ctx, TriggerAdmin)
		return TriggerResult{Status: TriggerSkipped, Reason: ReasonAlreadyRunning}, nil
	}
	if err != nil {
		return TriggerResult{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.execute(s.runsCtx, open, TriggerAdmin); err != nil {
			s.log.Error("manual sync run", slog.Int64("sync_log_id", open.ID), slog.String("error", err.Error()))
		}
	}()

	return TriggerResult{Status: TriggerStarted, LogID: open.ID}, nil
}

// RunScheduled is the cron entry point. It is a no-op while sync is
// disabled.
func (s *Service) RunScheduled(ctx context.Context) (Result, error) {
	return s.runIfEnabled(ctx, TriggerScheduled)
}

func (s *Service) runIfEnabled(ctx context.Context, trigger Trigger) (Result, error) {
	if !s.cfg.Enabled {
		s.log.DebugContext(ctx, "sync disabled, run not started", slog.String("trigger", string(trigger)))
		syncRuns.WithLabelValues(string(trigger), string(OutcomeDisabled)).Inc()
		return Result{Outcome: OutcomeDisabled}, nil
	}
	return s.RunOnce(ctx, trigger)
}
