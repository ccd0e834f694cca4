package domain

// SyncType identifies the external source a sync log belongs to.
type SyncType string

const (
	SyncTypeMySideline SyncType = "mysideline"
)

func (t SyncType) String() string { return string(t) }

// SyncStatus is the lifecycle state of a sync log row.
type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

func (s SyncStatus) String() string { return string(s) }

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusRunning, SyncStatusCompleted, SyncStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// CanTransitionTo enforces running -> {completed, failed}.
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	return s == SyncStatusRunning && next.IsTerminal()
}

// State is an Australian state or territory code.
type State string

const (
	StateNSW State = "NSW"
	StateQLD State = "QLD"
	StateVIC State = "VIC"
	StateWA  State = "WA"
	StateSA  State = "SA"
	StateTAS State = "TAS"
	StateNT  State = "NT"
	StateACT State = "ACT"
)

// AllStates lists the closed set of state codes in display order.
var AllStates = []State{StateNSW, StateQLD, StateVIC, StateWA, StateSA, StateTAS, StateNT, StateACT}

func (s State) String() string { return string(s) }

func (s State) IsValid() bool {
	switch s {
	case StateNSW, StateQLD, StateVIC, StateWA, StateSA, StateTAS, StateNT, StateACT:
		return true
	}
	return false
}
