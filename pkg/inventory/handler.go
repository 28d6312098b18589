package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/httpserver"
)

// Handler provides read-only HTTP handlers for the inventory API
// (spec.md §4.13): assets, services, and edges for a target.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi.Router mounted under /targets/{targetID}.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/assets", h.handleAssets)
	r.Get("/services", h.handleServices)
	r.Get("/edges", h.handleEdges)
	return r
}

func (h *Handler) targetIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "targetID"))
}

func (h *Handler) handleAssets(w http.ResponseWriter, r *http.Request) {
	targetID, err := h.targetIDParam(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target id must be a valid UUID")
		return
	}

	assets, err := h.store.ListActiveAssets(r.Context(), targetID)
	if err != nil {
		h.logger.Error("listing assets", "error", err, "target_id", targetID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list assets")
		return
	}
	httpserver.Respond(w, http.StatusOK, assets)
}

func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	targetID, err := h.targetIDParam(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target id must be a valid UUID")
		return
	}

	services, err := h.store.ListActiveServicesForTarget(r.Context(), targetID)
	if err != nil {
		h.logger.Error("listing services", "error", err, "target_id", targetID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list services")
		return
	}
	httpserver.Respond(w, http.StatusOK, services)
}

func (h *Handler) handleEdges(w http.ResponseWriter, r *http.Request) {
	targetID, err := h.targetIDParam(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "target id must be a valid UUID")
		return
	}

	edges, err := h.store.ListActiveEdgesForTarget(r.Context(), targetID)
	if err != nil {
		h.logger.Error("listing edges", "error", err, "target_id", targetID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list edges")
		return
	}
	httpserver.Respond(w, http.StatusOK, edges)
}
