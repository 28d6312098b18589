package inventory

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTransition_Changed(t *testing.T) {
	tests := []struct {
		name string
		t    Transition
		want bool
	}{
		{"created", Transition{Created: true, NewStatus: StatusActive}, true},
		{"same status", Transition{PreviousStatus: StatusActive, NewStatus: StatusActive}, false},
		{"reactivated from stale", Transition{PreviousStatus: StatusStale, NewStatus: StatusActive}, true},
		{"reactivated from unresolved", Transition{PreviousStatus: StatusUnresolved, NewStatus: StatusActive}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Changed(); got != tt.want {
				t.Errorf("Changed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyAllStaleServices_DefaultsTrue(t *testing.T) {
	if !VerifyAllStaleServices {
		t.Error("expected VerifyAllStaleServices to default to true per the preserved spec asymmetry")
	}
}

func TestStaleReason_FormatsRunID(t *testing.T) {
	runID := uuid.New()
	reason := StaleReason(runID)
	if !strings.HasPrefix(reason, "not_seen_in_run:") {
		t.Errorf("StaleReason() = %q, want not_seen_in_run: prefix", reason)
	}
	if !strings.HasSuffix(reason, runID.String()) {
		t.Errorf("StaleReason() = %q, want suffix %s", reason, runID.String())
	}
}
