package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Old-Man-Footy/old-man-footy-sub011/pkg/ctxutil"
)

// TokenValidator verifies a bearer token and returns the user id and role.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int64, string, error)
}

// AdminAuth admits only requests carrying a valid bearer token with the
// admin role: a missing or invalid token is 401, any other role is 403.
func AdminAuth(validator TokenValidator, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			userID, role, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				logger.InfoContext(r.Context(), "admin token rejected",
					slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := ctxutil.WithUserID(r.Context(), userID)
			ctx = ctxutil.WithRole(ctx, role)
			if !ctxutil.IsAdminCtx(ctx) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
