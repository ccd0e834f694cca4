package carnivalsync

import (
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

// Trigger records what started a run. It is stored in the log metadata.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerAdmin     Trigger = "manual"
	TriggerStartup   Trigger = "startup"
	TriggerCLI       Trigger = "cli"
)

// Outcome is the end state of one RunOnce call.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDisabled  Outcome = "disabled"
)

// Failure and skip reasons written to the sync log.
const (
	ReasonAlreadyRunning = "alreadyRunning"
	ReasonTimeout        = "timeout"
	ReasonCanceled       = "canceled"
	ReasonOrphaned       = "orphaned"
)

// Result describes a finished run. Log is the terminal row; it is nil for
// skipped and disabled outcomes, which write nothing.
type Result struct {
	Outcome Outcome
	Reason  string
	Report  reconcile.Report
	Log     *domain.SyncLog
}

// LogID returns the id of the run's sync log, or zero if none was written.
func (r Result) LogID() int64 {
	if r.Log == nil {
		return 0
	}
	return r.Log.ID
}

// TriggerStatus is the immediate answer to a manual trigger.
type TriggerStatus string

const (
	TriggerStarted  TriggerStatus = "started"
	TriggerSkipped  TriggerStatus = "skipped"
	TriggerDisabled TriggerStatus = "disabled"
)

// TriggerResult is started(logID), skipped(alreadyRunning) or disabled.
type TriggerResult struct {
	Status TriggerStatus
	LogID  int64
	Reason string
}
