package target

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/httpserver"
	"github.com/corvidreef/reconwatch/pkg/scope"
)

// Handler provides HTTP handlers for the Target API (spec.md §4.13).
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi.Router with target routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	return r
}

type createRequest struct {
	Name           string   `json:"name" validate:"required"`
	AllowedDomains []string `json:"allowed_domains"`
	AllowedCIDRs   []string `json:"allowed_cidrs"`
	ExcludedHosts  []string `json:"excluded_hosts"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	t, err := h.store.Create(r.Context(), req.Name, scope.Config{
		AllowedDomains: req.AllowedDomains,
		AllowedCIDRs:   req.AllowedCIDRs,
		ExcludedHosts:  req.ExcludedHosts,
	})
	if err != nil {
		h.logger.Error("creating target", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create target")
		return
	}

	httpserver.Respond(w, http.StatusCreated, t)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	targets, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("listing targets", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list targets")
		return
	}
	httpserver.Respond(w, http.StatusOK, targets)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "id must be a valid UUID")
		return
	}

	t, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, "not_found", "target not found")
		return
	}

	httpserver.Respond(w, http.StatusOK, t)
}
