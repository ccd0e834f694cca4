package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync"
	"github.com/Old-Man-Footy/old-man-footy-sub011/pkg/ctxutil"
)

type syncService interface {
	TriggerManual(ctx context.Context) (carnivalsync.TriggerResult, error)
	RecentLogs(ctx context.Context, limit int) ([]domain.SyncLog, error)
	Stats(ctx context.Context, window time.Duration) (domain.SyncStats, error)
	Status(ctx context.Context) (carnivalsync.Status, error)
}

// SyncHandler serves the admin MySideline sync endpoints.
type SyncHandler struct {
	sync syncService
	log  *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(sync syncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync: sync,
		log:  logger.With("handler", "sync"),
	}
}

type triggerResponse struct {
	Result string `json:"result"`
	LogID  int64  `json:"logId,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Trigger starts a manual sync run.
// POST /admin/sync/mysideline
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	res, err := h.sync.TriggerManual(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "trigger sync", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	userID, _ := ctxutil.UserIDFromCtx(r.Context())
	h.log.InfoContext(r.Context(), "manual sync requested",
		slog.Int64("user_id", userID),
		slog.String("result", string(res.Status)),
		slog.Int64("sync_log_id", res.LogID),
	)

	body := triggerResponse{Result: string(res.Status), LogID: res.LogID, Reason: res.Reason}
	switch res.Status {
	case carnivalsync.TriggerStarted:
		writeJSON(w, http.StatusAccepted, body)
	case carnivalsync.TriggerSkipped:
		writeJSON(w, http.StatusConflict, body)
	default:
		writeJSON(w, http.StatusServiceUnavailable, body)
	}
}

// Logs lists recent sync logs, newest first.
// GET /admin/sync/mysideline/logs?limit=20
func (h *SyncHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.sync.RecentLogs(r.Context(), limit)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list sync logs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]SyncLogView, len(logs))
	for i, l := range logs {
		out[i] = NewSyncLogView(l)
	}
	writeJSON(w, http.StatusOK, out)
}

// Stats aggregates sync logs over a trailing window.
// GET /admin/sync/mysideline/stats?window=720h
func (h *SyncHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	window := carnivalsync.DefaultStatsWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 720h")
			return
		}
		window = d
	}

	stats, err := h.sync.Stats(r.Context(), window)
	if err != nil {
		h.log.ErrorContext(r.Context(), "sync stats", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, NewSyncStatsView(stats, window))
}

type statusResponse struct {
	Enabled      bool         `json:"enabled"`
	UseMock      bool         `json:"useMock"`
	URL          string       `json:"url"`
	Schedule     string       `json:"schedule"`
	NextRun      *time.Time   `json:"nextRun,omitempty"`
	BreakerState string       `json:"breakerState"`
	Running      bool         `json:"running"`
	LastRun      *SyncLogView `json:"lastRun,omitempty"`
}

// Status reports scheduler and breaker state with the latest run.
// GET /admin/sync/mysideline/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	st, err := h.sync.Status(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "sync status", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := statusResponse{
		Enabled:      st.Enabled,
		UseMock:      st.UseMock,
		URL:          st.URL,
		Schedule:     st.Schedule,
		NextRun:      st.NextRun,
		BreakerState: st.BreakerState,
		Running:      st.Running,
	}
	if st.LastRun != nil {
		v := NewSyncLogView(*st.LastRun)
		resp.LastRun = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !ctxutil.IsAdminCtx(r.Context()) {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
