package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/internal/httpserver"
)

// Handler provides HTTP handlers for the RunEvent audit log API
// (spec.md §4.13: `GET /audit-log?target=`).
type Handler struct {
	pool   db.DBTX
	logger *slog.Logger
}

// NewHandler creates an audit log Handler.
func NewHandler(pool db.DBTX, logger *slog.Logger) *Handler {
	return &Handler{pool: pool, logger: logger}
}

// Routes returns a chi.Router with audit log routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	return r
}

// eventRow is the JSON projection of a run_events row.
type eventRow struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	TargetID  uuid.UUID `json:"target_id"`
	EventType string    `json:"event_type"`
	Detail    any       `json:"detail"`
	CreatedAt string    `json:"created_at"`
}

const listEventsSQL = `
SELECT id, run_id, target_id, event_type, detail, created_at
FROM run_events
WHERE ($1::uuid IS NULL OR target_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var targetID *uuid.UUID
	if raw := r.URL.Query().Get("target"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target must be a valid UUID")
			return
		}
		targetID = &id
	}

	rows, err := h.pool.Query(r.Context(), listEventsSQL, targetID, params.PageSize, params.Offset)
	if err != nil {
		h.logger.Error("listing run events", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
		return
	}
	defer rows.Close()

	events := make([]eventRow, 0)
	for rows.Next() {
		var e eventRow
		if err := rows.Scan(&e.ID, &e.RunID, &e.TargetID, &e.EventType, &e.Detail, &e.CreatedAt); err != nil {
			h.logger.Error("scanning run event", "error", err)
			httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
			return
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("listing run events", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
		return
	}

	httpserver.Respond(w, http.StatusOK, events)
}
