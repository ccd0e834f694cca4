package rest

import (
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// SyncLogView is the JSON shape of a sync log, shared by the admin API and
// the status CLI.
type SyncLogView struct {
	ID              int64          `json:"id"`
	SyncType        string         `json:"syncType"`
	Status          string         `json:"status"`
	StartedAt       time.Time      `json:"startedAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	DurationMs      int64          `json:"durationMs,omitempty"`
	EventsProcessed int            `json:"eventsProcessed"`
	EventsCreated   int            `json:"eventsCreated"`
	EventsUpdated   int            `json:"eventsUpdated"`
	ErrorMessage    *string        `json:"errorMessage,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// NewSyncLogView maps a domain log.
func NewSyncLogView(l domain.SyncLog) SyncLogView {
	return SyncLogView{
		ID:              l.ID,
		SyncType:        l.SyncType.String(),
		Status:          l.Status.String(),
		StartedAt:       l.StartedAt,
		CompletedAt:     l.CompletedAt,
		DurationMs:      l.Duration().Milliseconds(),
		EventsProcessed: l.EventsProcessed,
		EventsCreated:   l.EventsCreated,
		EventsUpdated:   l.EventsUpdated,
		ErrorMessage:    l.ErrorMessage,
		Metadata:        l.Metadata,
	}
}

// SyncStatsView is the JSON shape of windowed sync statistics.
type SyncStatsView struct {
	Window          string     `json:"window"`
	Total           int        `json:"total"`
	Completed       int        `json:"completed"`
	Failed          int        `json:"failed"`
	Running         int        `json:"running"`
	SuccessRate     float64    `json:"successRate"`
	EventsProcessed int64      `json:"eventsProcessed"`
	EventsCreated   int64      `json:"eventsCreated"`
	EventsUpdated   int64      `json:"eventsUpdated"`
	LastSuccessAt   *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt   *time.Time `json:"lastFailureAt,omitempty"`
}

// NewSyncStatsView maps domain stats for the given window.
func NewSyncStatsView(s domain.SyncStats, window time.Duration) SyncStatsView {
	return SyncStatsView{
		Window:          window.String(),
		Total:           s.Total,
		Completed:       s.Completed,
		Failed:          s.Failed,
		Running:         s.Running,
		SuccessRate:     s.SuccessRate(),
		EventsProcessed: s.EventsProcessed,
		EventsCreated:   s.EventsCreated,
		EventsUpdated:   s.EventsUpdated,
		LastSuccessAt:   s.LastSuccessAt,
		LastFailureAt:   s.LastFailureAt,
	}
}
