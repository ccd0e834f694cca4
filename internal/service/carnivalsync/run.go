package carnivalsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/provider/mysideline"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/parser"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

// sampleSize is how many leading record ids go into sampleIds.
const sampleSize = 5

// Pipeline stages, recorded as errorKind on failed runs.
const (
	stageFetch     = "fetch"
	stageParse     = "parse"
	stageReconcile = "reconcile"
)

// RunOnce opens a sync log and runs the pipeline synchronously. A run that
// loses the single-flight race returns OutcomeSkipped and writes nothing.
// The returned error is set only when the log could not be opened or closed.
func (s *Service) RunOnce(ctx context.Context, trigger Trigger) (Result, error) {
	open, err := s.open(ctx, trigger)
	if errors.Is(err, domain.ErrAlreadyRunning) {
		return s.skipped(ctx, trigger), nil
	}
	if err != nil {
		return Result{}, err
	}
	return s.execute(ctx, open, trigger)
}

func (s *Service) open(ctx context.Context, trigger Trigger) (*domain.SyncLog, error) {
	metadata := map[string]any{
		"runId":     uuid.NewString(),
		"trigger":   string(trigger),
		"sourceUrl": s.cfg.URL,
	}
	l, err := s.logs.Open(ctx, domain.SyncTypeMySideline, s.now().UTC(), metadata)
	if err != nil {
		return nil, fmt.Errorf("open sync log: %w", err)
	}
	return l, nil
}

func (s *Service) skipped(ctx context.Context, trigger Trigger) Result {
	s.log.InfoContext(ctx, "sync run skipped",
		slog.String("trigger", string(trigger)),
		slog.String("reason", ReasonAlreadyRunning),
	)
	syncRuns.WithLabelValues(string(trigger), string(OutcomeSkipped)).Inc()
	return Result{Outcome: OutcomeSkipped, Reason: ReasonAlreadyRunning}
}

// execute runs the pipeline for an opened log under the run budget and
// closes the log. The close uses a context detached from ctx so that a
// timed-out or canceled run still ends in a terminal row.
func (s *Service) execute(ctx context.Context, open *domain.SyncLog, trigger Trigger) (Result, error) {
	syncRunning.Inc()
	defer syncRunning.Dec()

	logger := s.log.With(
		slog.Int64("sync_log_id", open.ID),
		slog.String("trigger", string(trigger)),
	)
	logger.InfoContext(ctx, "sync run started", slog.Duration("budget", s.cfg.EffectiveRunBudget()))

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.EffectiveRunBudget())
	defer cancel()

	metadata := make(map[string]any)
	report, stage, runErr := s.pipeline(runCtx, metadata)

	outcome := domain.SyncOutcome{
		Status:          domain.SyncStatusCompleted,
		CompletedAt:     s.now().UTC(),
		EventsProcessed: report.Processed(),
		EventsCreated:   report.Created,
		EventsUpdated:   report.Updated,
		Metadata:        metadata,
	}
	res := Result{Outcome: OutcomeCompleted, Report: report}

	if runErr != nil {
		reason := failureReason(runCtx, runErr)
		// The reconciliation was rolled back, so no counter survived.
		outcome = domain.SyncOutcome{
			Status:       domain.SyncStatusFailed,
			CompletedAt:  outcome.CompletedAt,
			ErrorMessage: reason,
			Metadata:     metadata,
		}
		metadata["errorKind"] = stage
		metadata["errorDetail"] = runErr.Error()
		res = Result{Outcome: OutcomeFailed, Reason: reason}
	}
	elapsed := outcome.CompletedAt.Sub(open.StartedAt)
	metadata["durationMs"] = elapsed.Milliseconds()

	closeCtx, cancelClose := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancelClose()

	closed, err := s.logs.Close(closeCtx, open.ID, outcome)
	if err != nil {
		logger.ErrorContext(ctx, "close sync log", slog.String("error", err.Error()))
		return res, fmt.Errorf("close sync log %d: %w", open.ID, err)
	}
	res.Log = closed

	syncRuns.WithLabelValues(string(trigger), string(res.Outcome)).Inc()
	syncRunDuration.WithLabelValues(string(res.Outcome)).Observe(elapsed.Seconds())

	if res.Outcome == OutcomeFailed {
		logger.ErrorContext(ctx, "sync run failed",
			slog.String("reason", res.Reason),
			slog.String("stage", stage),
			slog.String("error", runErr.Error()),
			slog.Duration("duration", elapsed),
		)
		return res, nil
	}

	observeReport(report)
	logger.InfoContext(ctx, "sync run completed",
		slog.Int("processed", report.Processed()),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors),
		slog.Duration("duration", elapsed),
	)
	return res, nil
}

// pipeline runs fetch, parse and reconcile strictly in sequence, filling
// metadata as it goes. On error it returns the failing stage.
func (s *Service) pipeline(ctx context.Context, metadata map[string]any) (reconcile.Report, string, error) {
	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		var fe *mysideline.FetchError
		if errors.As(err, &fe) {
			metadata["attemptCount"] = fe.Attempts
		}
		return reconcile.Report{}, stageFetch, fmt.Errorf("fetch: %w", err)
	}
	metadata["attemptCount"] = payload.Attempts
	metadata["sourceUrl"] = payload.SourceURL
	syncFetchAttempts.Observe(float64(payload.Attempts))

	parsed, err := s.parse(*payload)
	if err != nil {
		return reconcile.Report{}, stageParse, fmt.Errorf("parse: %w", err)
	}
	ids := parsed.IDs()
	metadata["batchSize"] = len(parsed.Records)
	metadata["filtered"] = parsed.Filtered
	metadata["parseWarnings"] = warningStrings(parsed.Warnings)
	metadata["sampleIds"] = ids[:min(sampleSize, len(ids))]
	metadata["recordIds"] = ids

	// No partial batch is reconciled once the budget is gone.
	if err := ctx.Err(); err != nil {
		return reconcile.Report{}, stageReconcile, err
	}

	var report reconcile.Report
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		system, err := s.users.EnsureSystemUser(ctx)
		if err != nil {
			return fmt.Errorf("ensure system user: %w", err)
		}
		report, err = s.reconciler.Reconcile(ctx, parsed.Records, system.ID)
		return err
	})
	if err != nil {
		return reconcile.Report{}, stageReconcile, fmt.Errorf("reconcile: %w", err)
	}

	metadata["decisions"] = report.Summary()
	if errIDs := report.ErrorIDs(); len(errIDs) > 0 {
		metadata["errorIds"] = errIDs
		s.log.WarnContext(ctx, "records rejected during reconcile",
			slog.Int("count", len(errIDs)),
			slog.Any("ids", errIDs),
		)
	}
	return report, "", nil
}

// failureReason renders the errorMessage of a failed run: the fetch or parse
// error kind, timeout when the run budget expired, or the error text.
func failureReason(runCtx context.Context, err error) string {
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(runCtx.Err(), context.Canceled):
		return ReasonCanceled
	}

	var fe *mysideline.FetchError
	if errors.As(err, &fe) {
		if fe.Kind == mysideline.KindHTTPStatus {
			return fmt.Sprintf("%s(%d)", fe.Kind, fe.StatusCode)
		}
		return string(fe.Kind)
	}

	var pe *parser.ParseError
	if errors.As(err, &pe) {
		if pe.Field != "" {
			return fmt.Sprintf("%s(%s)", pe.Kind, pe.Field)
		}
		return string(pe.Kind)
	}

	return err.Error()
}

func warningStrings(ws []parser.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
