package reconcile

import "github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"

// Action is what the reconciler did with one canonical record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionError   Action = "error"
)

// Skip reasons.
const (
	ReasonUnchanged = "unchanged"
	ReasonClaimed   = "claimed"
)

// Per-record error kinds.
const (
	ErrorKindValidation = "validation"
	ErrorKindConflict   = "conflict"
)

// Decision records the outcome for one source id.
type Decision struct {
	MySidelineID string
	Action       Action
	CarnivalID   int64
	Fields       []domain.CarnivalField
	Reason       string
	ErrorKind    string
}

// Report summarises a reconciliation. Decisions follow batch order.
type Report struct {
	Created   int
	Updated   int
	Skipped   int
	Errors    int
	Decisions []Decision
}

// Processed is the number of records that reached the reconciler.
func (r Report) Processed() int {
	return r.Created + r.Updated + r.Skipped + r.Errors
}

// Summary returns counts by action and skip reason for audit metadata.
func (r Report) Summary() map[string]int {
	s := map[string]int{
		string(ActionCreated): r.Created,
		string(ActionUpdated): r.Updated,
		string(ActionSkipped): r.Skipped,
		string(ActionError):   r.Errors,
	}
	for _, d := range r.Decisions {
		if d.Action == ActionSkipped && d.Reason != "" {
			s["skipped:"+d.Reason]++
		}
	}
	return s
}

// ErrorIDs returns the source ids that failed, in batch order.
func (r Report) ErrorIDs() []string {
	var ids []string
	for _, d := range r.Decisions {
		if d.Action == ActionError {
			ids = append(ids, d.MySidelineID)
		}
	}
	return ids
}

func (r *Report) add(d Decision) {
	switch d.Action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionSkipped:
		r.Skipped++
	case ActionError:
		r.Errors++
	}
	r.Decisions = append(r.Decisions, d)
}
