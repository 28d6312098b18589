package run

import "testing"

func TestTrigger_Constants(t *testing.T) {
	if TriggerManual == TriggerScheduled {
		t.Error("expected manual and scheduled triggers to be distinct")
	}
}
