package audit

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestLog_DropsWhenFull(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)
	// Don't start the background goroutine — nothing drains the channel.

	runID := uuid.New()
	for i := 0; i < bufferSize; i++ {
		w.Log(Entry{RunID: runID, EventType: "job.claimed"})
	}

	// The next log should be dropped (non-blocking), not a deadlock.
	w.Log(Entry{RunID: runID, EventType: "dropped"})

	if len(w.entries) != bufferSize {
		t.Errorf("buffer size = %d, want %d", len(w.entries), bufferSize)
	}
}

func TestLog_EnqueuesEntry(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	runID := uuid.New()
	targetID := uuid.New()
	w.Log(Entry{RunID: runID, TargetID: targetID, EventType: "run.started"})

	entry := <-w.entries
	if entry.RunID != runID {
		t.Errorf("RunID = %v, want %v", entry.RunID, runID)
	}
	if entry.TargetID != targetID {
		t.Errorf("TargetID = %v, want %v", entry.TargetID, targetID)
	}
	if entry.EventType != "run.started" {
		t.Errorf("EventType = %q, want %q", entry.EventType, "run.started")
	}
}
