package domain

import "time"

// SyncLog is the persisted audit row of a single sync run.
type SyncLog struct {
	ID              int64
	SyncType        SyncType
	Status          SyncStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
	EventsProcessed int
	EventsCreated   int
	EventsUpdated   int
	ErrorMessage    *string
	Metadata        map[string]any
}

// Duration returns the run time of a terminal log, or zero while running.
func (l SyncLog) Duration() time.Duration {
	if l.CompletedAt == nil {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// SyncOutcome is what the orchestrator writes when it closes a log.
type SyncOutcome struct {
	Status          SyncStatus
	CompletedAt     time.Time
	EventsProcessed int
	EventsCreated   int
	EventsUpdated   int
	ErrorMessage    string
	Metadata        map[string]any
}

// SyncStats aggregates sync logs over a trailing window.
type SyncStats struct {
	Total           int
	Completed       int
	Failed          int
	Running         int
	EventsProcessed int64
	EventsCreated   int64
	EventsUpdated   int64
	LastSuccessAt   *time.Time
	LastFailureAt   *time.Time
}

// SuccessRate is completed / (completed + failed) in [0, 1]; zero when no
// run has finished.
func (s SyncStats) SuccessRate() float64 {
	finished := s.Completed + s.Failed
	if finished == 0 {
		return 0
	}
	return float64(s.Completed) / float64(finished)
}
