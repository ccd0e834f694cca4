package domain

import "testing"

func TestSyncStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to SyncStatus
		want     bool
	}{
		{SyncStatusRunning, SyncStatusCompleted, true},
		{SyncStatusRunning, SyncStatusFailed, true},
		{SyncStatusRunning, SyncStatusRunning, false},
		{SyncStatusCompleted, SyncStatusFailed, false},
		{SyncStatusFailed, SyncStatusCompleted, false},
		{SyncStatusFailed, SyncStatusRunning, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSyncStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []SyncStatus{SyncStatusRunning, SyncStatusCompleted, SyncStatusFailed} {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false", s)
		}
	}
	if SyncStatus("queued").IsValid() {
		t.Error(`"queued".IsValid() = true`)
	}
}

func TestState_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range AllStates {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false", s)
		}
	}
	if State("NZ").IsValid() {
		t.Error(`"NZ".IsValid() = true`)
	}
}
