package scheduler

import (
	"testing"
	"time"
)

func TestSchedule_NextRunAtIsFuture(t *testing.T) {
	sch := Schedule{IntervalSec: 300, NextRunAt: time.Now().Add(300 * time.Second)}
	if !sch.NextRunAt.After(time.Now()) {
		t.Error("expected NextRunAt to be in the future for a freshly created schedule")
	}
}
