package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codefyre/backend/internal/model/identity"
	model "github.com/codefyre/backend/internal/model/project"
	projectservice "github.com/codefyre/backend/internal/service/project"
	"github.com/codefyre/backend/pkg/utils"
)

// Handler exposes the client dashboard: project requests and the activity
// feed.
type Handler struct {
	svc *projectservice.Service
}

// New creates the dashboard handler.
func New(svc *projectservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the dashboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/projects", h.handleCreate)
	r.Get("/projects", h.handleList)
	r.Patch("/projects/{projectID}/status", h.handleUpdateStatus)
	r.Get("/activity", h.handleActivity)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in projectservice.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Create(r.Context(), caller, in)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Status model.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := h.svc.UpdateStatus(r.Context(), caller, projectID, payload.Status); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, projectservice.ErrMissingFields),
		errors.Is(err, projectservice.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, projectservice.ErrNotAdmin):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.svc.List(r.Context(), caller)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.svc.Activity(r.Context(), caller)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}
