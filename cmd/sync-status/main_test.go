package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

type logStoreMock struct {
	exists    bool
	existsErr error
	logs      []domain.SyncLog
	stats     domain.SyncStats

	gotLimit int
	gotSince time.Time
}

func (m *logStoreMock) TableExists(context.Context) (bool, error) {
	return m.exists, m.existsErr
}

func (m *logStoreMock) ListRecent(_ context.Context, _ domain.SyncType, limit int) ([]domain.SyncLog, error) {
	m.gotLimit = limit
	return m.logs, nil
}

func (m *logStoreMock) Stats(_ context.Context, _ domain.SyncType, since time.Time) (domain.SyncStats, error) {
	m.gotSince = since
	return m.stats, nil
}

var statusNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func sampleStore() *logStoreMock {
	started := statusNow.Add(-9 * time.Hour)
	completed := started.Add(2 * time.Second)
	failedAt := started.Add(-24 * time.Hour)
	msg := "httpStatus(503)"
	return &logStoreMock{
		exists: true,
		logs: []domain.SyncLog{
			{
				ID: 2, SyncType: domain.SyncTypeMySideline, Status: domain.SyncStatusCompleted,
				StartedAt: started, CompletedAt: &completed,
				EventsProcessed: 12, EventsCreated: 3, EventsUpdated: 1,
			},
			{
				ID: 1, SyncType: domain.SyncTypeMySideline, Status: domain.SyncStatusFailed,
				StartedAt: failedAt, CompletedAt: &failedAt, ErrorMessage: &msg,
			},
		},
		stats: domain.SyncStats{
			Total: 2, Completed: 1, Failed: 1,
			EventsProcessed: 12, EventsCreated: 3, EventsUpdated: 1,
			LastSuccessAt: &completed, LastFailureAt: &failedAt,
		},
	}
}

func TestFill(t *testing.T) {
	t.Parallel()

	store := sampleStore()
	var rep report
	require.NoError(t, fill(context.Background(), store, 5, 48*time.Hour, statusNow, &rep))

	assert.Equal(t, 5, store.gotLimit)
	assert.True(t, statusNow.Add(-48*time.Hour).Equal(store.gotSince))
	assert.True(t, rep.Database.TableExists)
	require.Len(t, rep.Logs, 2)
	assert.Equal(t, int64(2000), rep.Logs[0].DurationMs)
	require.NotNil(t, rep.Stats)
	assert.InDelta(t, 0.5, rep.Stats.SuccessRate, 1e-9)
}

func TestFill_MissingTable(t *testing.T) {
	t.Parallel()

	var rep report
	err := fill(context.Background(), &logStoreMock{exists: false}, 10, time.Hour, statusNow, &rep)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.False(t, rep.Database.TableExists)
	assert.Nil(t, rep.Stats)
}

func TestFill_TableCheckError(t *testing.T) {
	t.Parallel()

	var rep report
	err := fill(context.Background(), &logStoreMock{existsErr: errors.New("permission denied")}, 10, time.Hour, statusNow, &rep)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	rep := report{Config: newConfigView(config.MySidelineConfig{
		Enabled: true, URL: "https://example.test/search", Timeout: time.Minute,
		RetryAttempts: 3, Schedule: "0 3 * * *",
	})}
	rep.Database.Reachable = true
	require.NoError(t, fill(context.Background(), sampleStore(), 10, 720*time.Hour, statusNow, &rep))

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, rep))
	out := buf.String()

	for _, want := range []string{
		"https://example.test/search",
		"1m0s",
		"0 3 * * *",
		"sync_logs table",
		"Recent sync logs (2)",
		"httpStatus(503)",
		"Statistics (last 720h0m0s)",
		"50.0%",
		"2025-08-01T03:00:02Z",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteText_Unreachable(t *testing.T) {
	t.Parallel()

	rep := report{}
	rep.Database.Error = "ping database: connection refused"

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "connection refused")
	assert.NotContains(t, out, "Statistics")
	assert.False(t, strings.Contains(out, "sync_logs table"))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rep := report{Config: newConfigView(config.MySidelineConfig{UseMock: true, RetryAttempts: 2})}
	rep.Database.Reachable = true
	require.NoError(t, fill(context.Background(), sampleStore(), 10, 24*time.Hour, statusNow, &rep))

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, rep))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	cfg := got["config"].(map[string]any)
	assert.Equal(t, true, cfg["useMock"])
	assert.Equal(t, float64(2), cfg["retryAttempts"])
	db := got["database"].(map[string]any)
	assert.Equal(t, true, db["syncLogsTable"])
	assert.Len(t, got["logs"], 2)
	stats := got["stats"].(map[string]any)
	assert.Equal(t, "24h0m0s", stats["window"])
}
