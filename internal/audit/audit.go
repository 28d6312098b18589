// Package audit provides an async, buffered writer for RunEvent records —
// the append-only audit trail spec.md §4.8 requires alongside every
// inventory and job-queue state transition. Writes never block the caller
// and are never a correctness path: if the buffer is full, the entry is
// dropped and a warning is logged.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/internal/telemetry"
)

// Entry represents a single RunEvent to be written.
type Entry struct {
	RunID     uuid.UUID
	TargetID  uuid.UUID
	EventType string
	Detail    json.RawMessage
}

// Writer is an async, buffered audit log writer. Entries are sent to an
// internal channel and flushed by a background goroutine.
type Writer struct {
	pool    db.DBTX
	logger  *slog.Logger
	entries chan Entry
	wg      sync.WaitGroup
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
	flushBatch    = 32
)

// NewWriter creates an audit Writer. Call Start to begin processing entries.
func NewWriter(pool db.DBTX, logger *slog.Logger) *Writer {
	return &Writer{
		pool:    pool,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
	}
}

// Start begins the background goroutine that flushes audit entries to the
// database and returns immediately. The goroutine exits once the context is
// cancelled (or Close is called) and the pending entries have been flushed.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues an audit entry for async writing. It never blocks the
// caller; if the buffer is full the entry is dropped and a warning logged.
func (w *Writer) Log(entry Entry) {
	select {
	case w.entries <- entry:
	default:
		telemetry.AuditEntriesDroppedTotal.Inc()
		w.logger.Warn("audit log buffer full, dropping entry",
			"event_type", entry.EventType, "run_id", entry.RunID)
	}
}

func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

const insertEventSQL = `
INSERT INTO run_events (id, run_id, target_id, event_type, detail, created_at)
VALUES ($1, $2, $3, $4, $5, now())`

// flush writes a batch of entries to the database. Individual failures are
// logged, not propagated — a dropped audit write must never fail the
// operation that triggered it.
func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, e := range entries {
		if _, err := w.pool.Exec(ctx, insertEventSQL,
			uuid.New(), e.RunID, e.TargetID, e.EventType, e.Detail,
		); err != nil {
			w.logger.Error("writing run event", "error", err,
				"event_type", e.EventType, "run_id", e.RunID)
		}
	}
}
