package run

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/httpserver"
)

// Handler provides HTTP handlers for the Run API (spec.md §4.13).
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi.Router with run routes mounted under /targets/{targetID}/runs;
// the standalone /runs/{id}/discard endpoint is served by DiscardRoutes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	return r
}

// DiscardRoutes returns a chi.Router for POST /runs/{id}/discard.
func (h *Handler) DiscardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{id}/discard", h.handleDiscard)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "targetID"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target id must be a valid UUID")
		return
	}

	created, err := h.store.Create(r.Context(), targetID)
	if err != nil {
		h.logger.Error("creating run", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create run")
		return
	}

	httpserver.Respond(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "targetID"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target id must be a valid UUID")
		return
	}

	runs, err := h.store.ListForTarget(r.Context(), targetID)
	if err != nil {
		h.logger.Error("listing runs", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list runs")
		return
	}

	httpserver.Respond(w, http.StatusOK, runs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "id must be a valid UUID")
		return
	}

	rn, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, "not_found", "run not found")
		return
	}

	httpserver.Respond(w, http.StatusOK, rn)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "id must be a valid UUID")
		return
	}

	if err := h.store.Discard(r.Context(), id); err != nil {
		h.logger.Error("discarding run", "error", err, "run_id", id)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to discard run")
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "discarded"})
}
