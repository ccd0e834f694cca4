package rest

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

// breakerReporter exposes the MySideline circuit breaker state.
type breakerReporter interface {
	BreakerState() string
}

// HealthHandler serves /live, /ready and /health.
type HealthHandler struct {
	db      dbPinger
	source  breakerReporter
	version string
}

func NewHealthHandler(db dbPinger, source breakerReporter, version string) *HealthHandler {
	return &HealthHandler{db: db, source: source, version: version}
}

// HealthResponse is the body of every health endpoint.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Live always answers 200 while the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Ready is 503 when the database does not answer a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	db := h.probeDatabase(r.Context())
	writeJSON(w, httpStatusFor(db.Status), HealthResponse{Status: db.Status, Timestamp: time.Now().UTC()})
}

// Health reports every component. The database decides availability; a
// tripped source breaker only degrades the report because the catalog keeps
// serving while MySideline is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	db := h.probeDatabase(r.Context())
	source := h.probeSource()

	overall := db.Status
	if overall == "ok" && source.Status != "ok" {
		overall = "degraded"
	}

	writeJSON(w, httpStatusFor(overall), HealthResponse{
		Status:  overall,
		Version: h.version,
		Components: map[string]CompStatus{
			"database":   db,
			"mysideline": source,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (h *HealthHandler) probeDatabase(ctx context.Context) CompStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		return CompStatus{Status: "down"}
	}
	return CompStatus{Status: "ok", Latency: time.Since(start).String()}
}

func (h *HealthHandler) probeSource() CompStatus {
	state := h.source.BreakerState()
	status := "ok"
	if state != "closed" {
		status = "degraded"
	}
	return CompStatus{Status: status, Detail: "breaker " + state}
}

func httpStatusFor(status string) int {
	if status == "down" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
