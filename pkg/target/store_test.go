package target

import "testing"

func TestTarget_ZeroValueInactive(t *testing.T) {
	var tg Target
	if tg.Active {
		t.Error("expected zero-value Target to be inactive")
	}
}
