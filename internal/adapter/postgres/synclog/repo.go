// Package synclog implements the sync audit log repository using PostgreSQL.
package synclog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// singleFlightIndex is the partial unique index allowing one running log per type.
const singleFlightIndex = "uq_sync_logs_one_running"

var columns = []string{
	"id", "sync_type", "status", "started_at", "completed_at",
	"events_processed", "events_created", "events_updated", "error_message", "metadata",
}

// Repo provides sync log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new sync log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Open inserts a running log. It returns domain.ErrAlreadyRunning when a log
// of the same type is already running.
func (r *Repo) Open(ctx context.Context, syncType domain.SyncType, startedAt time.Time, metadata map[string]any) (*domain.SyncLog, error) {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	query, args, err := postgres.Builder.
		Insert("sync_logs").
		Columns("sync_type", "status", "started_at", "metadata").
		Values(string(syncType), string(domain.SyncStatusRunning), startedAt, meta).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert sync_log: %w", err)
	}

	l, err := scanLog(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.ConstraintName(err) == singleFlightIndex {
			return nil, fmt.Errorf("sync_log %s: %w", syncType, domain.ErrAlreadyRunning)
		}
		return nil, postgres.MapError(err, "sync_log", syncType)
	}
	return l, nil
}

// Close moves a running log to a terminal status. Metadata is merged into
// what Open stored. Closing a log that is not running returns
// domain.ErrInvalidTransition.
func (r *Repo) Close(ctx context.Context, id int64, outcome domain.SyncOutcome) (*domain.SyncLog, error) {
	if !domain.SyncStatusRunning.CanTransitionTo(outcome.Status) {
		return nil, fmt.Errorf("sync_log %d to %q: %w", id, outcome.Status, domain.ErrInvalidTransition)
	}

	meta, err := encodeMetadata(outcome.Metadata)
	if err != nil {
		return nil, err
	}

	set := map[string]any{
		"status":           string(outcome.Status),
		"completed_at":     sq.Expr("GREATEST(?::timestamptz, started_at)", outcome.CompletedAt),
		"events_processed": outcome.EventsProcessed,
		"events_created":   outcome.EventsCreated,
		"events_updated":   outcome.EventsUpdated,
		"error_message":    domain.OptionalText(outcome.ErrorMessage),
		"metadata":         sq.Expr("metadata || ?::jsonb", meta),
	}

	query, args, err := postgres.Builder.
		Update("sync_logs").
		SetMap(set).
		Where(sq.Eq{"id": id, "status": string(domain.SyncStatusRunning)}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build close sync_log: %w", err)
	}

	l, err := scanLog(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, postgres.MapError(err, "sync_log", id)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("sync_log %d is %s: %w", id, current.Status, domain.ErrInvalidTransition)
}

// MarkFailed closes a running log as failed with reason as its error message.
func (r *Repo) MarkFailed(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := r.Close(ctx, id, domain.SyncOutcome{
		Status:       domain.SyncStatusFailed,
		CompletedAt:  at,
		ErrorMessage: reason,
		Metadata:     map[string]any{"errorKind": reason},
	})
	return err
}

// FindOrphanRunning returns running logs of syncType started before olderThan.
func (r *Repo) FindOrphanRunning(ctx context.Context, syncType domain.SyncType, olderThan time.Time) ([]domain.SyncLog, error) {
	return r.list(ctx, postgres.Builder.
		Select(columns...).
		From("sync_logs").
		Where(sq.Eq{"sync_type": string(syncType), "status": string(domain.SyncStatusRunning)}).
		Where(sq.Lt{"started_at": olderThan}).
		OrderBy("started_at"))
}

// ListRecent returns up to limit logs of syncType, newest first.
func (r *Repo) ListRecent(ctx context.Context, syncType domain.SyncType, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		return []domain.SyncLog{}, nil
	}
	return r.list(ctx, postgres.Builder.
		Select(columns...).
		From("sync_logs").
		Where(sq.Eq{"sync_type": string(syncType)}).
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)))
}

// GetByID returns a sync log by primary key.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.SyncLog, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("sync_logs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sync_log: %w", err)
	}

	l, err := scanLog(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "sync_log", id)
	}
	return l, nil
}

// Stats aggregates logs of syncType started at or after since.
func (r *Repo) Stats(ctx context.Context, syncType domain.SyncType, since time.Time) (domain.SyncStats, error) {
	query, args, err := postgres.Builder.
		Select(
			"count(*)",
			"count(*) FILTER (WHERE status = 'completed')",
			"count(*) FILTER (WHERE status = 'failed')",
			"count(*) FILTER (WHERE status = 'running')",
			"coalesce(sum(events_processed), 0)",
			"coalesce(sum(events_created), 0)",
			"coalesce(sum(events_updated), 0)",
			"max(completed_at) FILTER (WHERE status = 'completed')",
			"max(completed_at) FILTER (WHERE status = 'failed')",
		).
		From("sync_logs").
		Where(sq.Eq{"sync_type": string(syncType)}).
		Where(sq.GtOrEq{"started_at": since}).
		ToSql()
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("build sync_log stats: %w", err)
	}

	var s domain.SyncStats
	err = postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&s.Total, &s.Completed, &s.Failed, &s.Running,
		&s.EventsProcessed, &s.EventsCreated, &s.EventsUpdated,
		&s.LastSuccessAt, &s.LastFailureAt,
	)
	if err != nil {
		return domain.SyncStats{}, postgres.MapError(err, "sync_log stats", syncType)
	}
	return s, nil
}

// DeleteFinishedBefore removes terminal logs of syncType that started before
// cutoff. Running logs are kept regardless of age.
func (r *Repo) DeleteFinishedBefore(ctx context.Context, syncType domain.SyncType, cutoff time.Time) (int64, error) {
	query, args, err := postgres.Builder.
		Delete("sync_logs").
		Where(sq.Eq{"sync_type": string(syncType)}).
		Where(sq.NotEq{"status": string(domain.SyncStatusRunning)}).
		Where(sq.Lt{"started_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete sync_logs: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, "sync_log", syncType)
	}
	return tag.RowsAffected(), nil
}

// TableExists reports whether the sync_logs table is present, so status
// tooling can tell an unmigrated database from an empty one.
func (r *Repo) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT to_regclass('sync_logs') IS NOT NULL`).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sync_logs table: %w", err)
	}
	return exists, nil
}

func (r *Repo) list(ctx context.Context, b sq.SelectBuilder) ([]domain.SyncLog, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sync_logs: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "sync_logs", "list")
	}
	defer rows.Close()

	logs := make([]domain.SyncLog, 0)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync_log: %w", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "sync_logs", "list")
	}
	return logs, nil
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func scanLog(row pgx.Row) (*domain.SyncLog, error) {
	var (
		l                domain.SyncLog
		syncType, status string
		meta             []byte
	)
	err := row.Scan(
		&l.ID, &syncType, &status, &l.StartedAt, &l.CompletedAt,
		&l.EventsProcessed, &l.EventsCreated, &l.EventsUpdated, &l.ErrorMessage, &meta,
	)
	if err != nil {
		return nil, err
	}
	l.SyncType = domain.SyncType(syncType)
	l.Status = domain.SyncStatus(status)

	l.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &l.Metadata); err != nil {
			return nil, fmt.Errorf("decode sync_log %d metadata: %w", l.ID, err)
		}
	}
	return &l, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode sync_log metadata: %w", err)
	}
	return b, nil
}
