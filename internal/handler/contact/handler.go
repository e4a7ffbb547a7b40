package contact

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codefyre/backend/internal/auth"
	model "github.com/codefyre/backend/internal/model/contact"
	"github.com/codefyre/backend/internal/model/identity"
	contactservice "github.com/codefyre/backend/internal/service/contact"
	"github.com/codefyre/backend/internal/store"
	"github.com/codefyre/backend/pkg/utils"
)

// Handler exposes the callback request board: visitors file requests, the
// operator watches them live and walks their status forward.
type Handler struct {
	svc *contactservice.Service
}

// New creates the contact handler.
func New(svc *contactservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the request routes. The live board and status
// changes are admin only.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.handleCreate)
	r.Group(func(admin chi.Router) {
		admin.Use(auth.RequireAdmin)
		admin.Get("/requests/stream", h.handleStream)
		admin.Patch("/requests/{requestID}/status", h.handleUpdateStatus)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.FromContext(r.Context())

	var payload struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Email == "" {
		payload.Email = caller.Email
	}
	if payload.Name == "" {
		payload.Name = caller.Name
	}

	id, err := h.svc.Create(r.Context(), model.Request{
		Name:    payload.Name,
		Email:   payload.Email,
		Phone:   payload.Phone,
		Subject: payload.Subject,
		Message: payload.Message,
	})
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status model.RequestStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requestID := chi.URLParam(r, "requestID")
	if err := h.svc.UpdateStatus(r.Context(), requestID, payload.Status); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream, err := h.svc.SubscribeRequests(r.Context())
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)
	log.Println("[contact] request board stream opened")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case list, open := <-stream.Updates():
			if !open {
				return
			}
			utils.SendSSEEvent(w, flusher, "requests", list)
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contactservice.ErrMissingContact),
		errors.Is(err, contactservice.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
