package carnivalsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/provider"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 8, 1, 3, 0, 0, 0, time.UTC)

func testConfig() config.MySidelineConfig {
	return config.MySidelineConfig{
		Enabled:                 true,
		Schedule:                "0 3 * * *",
		Timezone:                "UTC",
		StartupDelay:            time.Hour,
		AllowManualWhenDisabled: true,
		StalenessThreshold:      time.Hour,
		URL:                     "https://profile.mysideline.com.au/register/clubsearch/?criteria=Masters",
		Timeout:                 time.Second,
		RetryAttempts:           3,
		RetryBackoff:            time.Millisecond,
	}
}

// listingHTML renders a results page with one card per (id, title) pair.
func listingHTML(cards ...[2]string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><section class="search-results" data-mysideline-results>`)
	for _, c := range cards {
		fmt.Fprintf(&b, `<article data-event-id="%s"><h3 class="event-title">%s</h3></article>`, c[0], c[1])
	}
	b.WriteString(`</section></body></html>`)
	return []byte(b.String())
}

func htmlPayload(body []byte, attempts int) *provider.RawPayload {
	return &provider.RawPayload{
		Body:        body,
		ContentType: "text/html",
		SourceURL:   "https://profile.mysideline.com.au/register/clubsearch/?criteria=Masters&page=1",
		Attempts:    attempts,
		FetchedAt:   testNow,
	}
}

// ---------------------------------------------------------------------------
// fetcher
// ---------------------------------------------------------------------------

type fetcherMock struct {
	fetchFn func(ctx context.Context) (*provider.RawPayload, error)

	mu    sync.Mutex
	calls int
}

func (m *fetcherMock) Fetch(ctx context.Context) (*provider.RawPayload, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fetchFn(ctx)
}

func (m *fetcherMock) BreakerState() string { return "closed" }

func (m *fetcherMock) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// sync logs: in-memory store with the one-running-per-type rule
// ---------------------------------------------------------------------------

type memSyncLogs struct {
	mu     sync.Mutex
	rows   map[int64]*domain.SyncLog
	nextID int64

	openErr  error
	closeErr error

	// closeCtxErr is ctx.Err() as seen by the last Close call.
	closeCtxErr error
	lastLimit   int
	lastSince   time.Time
}

func newMemSyncLogs() *memSyncLogs {
	return &memSyncLogs{rows: map[int64]*domain.SyncLog{}, nextID: 1}
}

func (m *memSyncLogs) Open(_ context.Context, syncType domain.SyncType, startedAt time.Time, metadata map[string]any) (*domain.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	for _, l := range m.rows {
		if l.SyncType == syncType && l.Status == domain.SyncStatusRunning {
			return nil, fmt.Errorf("open %s: %w", syncType, domain.ErrAlreadyRunning)
		}
	}
	l := &domain.SyncLog{
		ID:        m.nextID,
		SyncType:  syncType,
		Status:    domain.SyncStatusRunning,
		StartedAt: startedAt,
		Metadata:  maps.Clone(metadata),
	}
	m.nextID++
	m.rows[l.ID] = l
	cp := *l
	return &cp, nil
}

func (m *memSyncLogs) Close(ctx context.Context, id int64, o domain.SyncOutcome) (*domain.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCtxErr = ctx.Err()
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	l, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("sync log %d: %w", id, domain.ErrNotFound)
	}
	if !l.Status.CanTransitionTo(o.Status) {
		return nil, fmt.Errorf("sync log %d: %w", id, domain.ErrInvalidTransition)
	}
	completed := o.CompletedAt
	if completed.Before(l.StartedAt) {
		completed = l.StartedAt
	}
	l.Status = o.Status
	l.CompletedAt = &completed
	l.EventsProcessed = o.EventsProcessed
	l.EventsCreated = o.EventsCreated
	l.EventsUpdated = o.EventsUpdated
	if o.ErrorMessage != "" {
		msg := o.ErrorMessage
		l.ErrorMessage = &msg
	}
	if l.Metadata == nil {
		l.Metadata = map[string]any{}
	}
	maps.Copy(l.Metadata, o.Metadata)
	cp := *l
	cp.Metadata = maps.Clone(l.Metadata)
	return &cp, nil
}

func (m *memSyncLogs) MarkFailed(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := m.Close(ctx, id, domain.SyncOutcome{
		Status:       domain.SyncStatusFailed,
		CompletedAt:  at,
		ErrorMessage: reason,
		Metadata:     map[string]any{"errorKind": reason},
	})
	return err
}

func (m *memSyncLogs) FindOrphanRunning(_ context.Context, syncType domain.SyncType, olderThan time.Time) ([]domain.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SyncLog
	for _, l := range m.rows {
		if l.SyncType == syncType && l.Status == domain.SyncStatusRunning && l.StartedAt.Before(olderThan) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memSyncLogs) ListRecent(_ context.Context, syncType domain.SyncType, limit int) ([]domain.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	var out []domain.SyncLog
	for _, l := range m.rows {
		if l.SyncType == syncType {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b domain.SyncLog) int { return int(b.ID - a.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSyncLogs) Stats(_ context.Context, _ domain.SyncType, since time.Time) (domain.SyncStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSince = since
	var st domain.SyncStats
	for _, l := range m.rows {
		st.Total++
		switch l.Status {
		case domain.SyncStatusCompleted:
			st.Completed++
		case domain.SyncStatusFailed:
			st.Failed++
		case domain.SyncStatusRunning:
			st.Running++
		}
	}
	return st, nil
}

// seed inserts a row directly, bypassing the single-flight check.
func (m *memSyncLogs) seed(l domain.SyncLog) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextID
	m.nextID++
	if l.SyncType == "" {
		l.SyncType = domain.SyncTypeMySideline
	}
	m.rows[l.ID] = &l
	return l.ID
}

func (m *memSyncLogs) get(id int64) domain.SyncLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memSyncLogs) all() []domain.SyncLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncLog, 0, len(m.rows))
	for _, l := range m.rows {
		out = append(out, *l)
	}
	slices.SortFunc(out, func(a, b domain.SyncLog) int { return int(a.ID - b.ID) })
	return out
}

// ---------------------------------------------------------------------------
// users, reconciler, tx
// ---------------------------------------------------------------------------

type usersMock struct {
	ensureFn func(ctx context.Context) (*domain.User, error)
}

func (m *usersMock) EnsureSystemUser(ctx context.Context) (*domain.User, error) {
	if m.ensureFn == nil {
		return &domain.User{ID: 42, Email: domain.SystemUserEmail}, nil
	}
	return m.ensureFn(ctx)
}

type reconcilerMock struct {
	reconcileFn func(ctx context.Context, batch []domain.CanonicalCarnival, proxyUserID int64) (reconcile.Report, error)

	mu      sync.Mutex
	calls   int
	batch   []domain.CanonicalCarnival
	proxyID int64
}

func (m *reconcilerMock) Reconcile(ctx context.Context, batch []domain.CanonicalCarnival, proxyUserID int64) (reconcile.Report, error) {
	m.mu.Lock()
	m.calls++
	m.batch = batch
	m.proxyID = proxyUserID
	m.mu.Unlock()
	if m.reconcileFn == nil {
		return createdReport(batch), nil
	}
	return m.reconcileFn(ctx, batch, proxyUserID)
}

// createdReport reports every record as newly created.
func createdReport(batch []domain.CanonicalCarnival) reconcile.Report {
	r := reconcile.Report{Created: len(batch)}
	for i, rec := range batch {
		r.Decisions = append(r.Decisions, reconcile.Decision{
			MySidelineID: rec.MySidelineID,
			Action:       reconcile.ActionCreated,
			CarnivalID:   int64(i + 1),
		})
	}
	return r
}

type txMock struct {
	mu    sync.Mutex
	calls int
}

func (m *txMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

type testDeps struct {
	fetcher *fetcherMock
	logs    *memSyncLogs
	users   *usersMock
	recon   *reconcilerMock
	tx      *txMock
}

func newTestService(cfg config.MySidelineConfig, fetchFn func(ctx context.Context) (*provider.RawPayload, error)) (*Service, *testDeps) {
	d := &testDeps{
		fetcher: &fetcherMock{fetchFn: fetchFn},
		logs:    newMemSyncLogs(),
		users:   &usersMock{},
		recon:   &reconcilerMock{},
		tx:      &txMock{},
	}
	svc := NewService(cfg, newTestLogger(), d.fetcher, d.logs, d.users, d.recon, d.tx)
	svc.now = func() time.Time { return testNow }
	return svc, d
}
