package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/auth"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync"
)

const routerSecret = "router-test-secret-at-least-32-characters"

func newTestRouter(t *testing.T, withAdmin bool) (http.Handler, *auth.JWTManager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtm := auth.NewJWTManager(routerSecret, "oldmanfooty", time.Minute)
	svc := &syncServiceMock{
		TriggerManualFunc: func(context.Context) (carnivalsync.TriggerResult, error) {
			return carnivalsync.TriggerResult{Status: carnivalsync.TriggerStarted, LogID: 1}, nil
		},
	}

	deps := RouterDeps{
		Health: NewHealthHandler(&dbPingerMock{}, breakerMock{"closed"}, "test"),
		Logger: logger,
	}
	if withAdmin {
		deps.Sync = NewSyncHandler(svc, logger)
		deps.Auth = jwtm
	}
	return NewRouter(deps), jwtm
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, true)

	for _, path := range []string{"/live", "/ready", "/health", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"), path)
	}
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	t.Parallel()

	h, jwtm := newTestRouter(t, true)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	member, err := jwtm.GenerateAccessToken(4, "member")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := jwtm.GenerateAccessToken(1, "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_AdminNotMountedWithoutAuth(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
