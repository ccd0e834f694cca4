package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Old-Man-Footy/old-man-footy-sub011/pkg/ctxutil"
)

func newValidator() *tokenValidatorMock {
	return &tokenValidatorMock{
		ValidateTokenFunc: func(_ context.Context, token string) (int64, string, error) {
			switch token {
			case "admin-token":
				return 7, "admin", nil
			case "user-token":
				return 8, "user", nil
			}
			return 0, "", errors.New("invalid token")
		},
	}
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalls  int
	}{
		{"admin token", "Bearer admin-token", http.StatusOK, 1},
		{"lower-case scheme", "bearer admin-token", http.StatusOK, 1},
		{"user token", "Bearer user-token", http.StatusForbidden, 1},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, 1},
		{"no header", "", http.StatusUnauthorized, 0},
		{"basic auth", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			validator := newValidator()
			var gotUser int64
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = ctxutil.UserIDFromCtx(r.Context())
				assert.True(t, ctxutil.IsAdminCtx(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AdminAuth(validator, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, validator.ValidateTokenCalls(), tt.wantCalls)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, int64(7), gotUser)
			} else {
				assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			}
		})
	}
}

func TestAdminAuth_PassesTrimmedToken(t *testing.T) {
	t.Parallel()
	validator := newValidator()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer  admin-token ")
	rec := httptest.NewRecorder()
	AdminAuth(validator, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"admin-token"}, validator.ValidateTokenCalls())
}
