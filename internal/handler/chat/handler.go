package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codefyre/backend/internal/model/identity"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	"github.com/codefyre/backend/internal/store"
	"github.com/codefyre/backend/pkg/utils"
)

// Handler exposes the conversation directory and message ledger over HTTP:
// plain endpoints for the mutations, SSE for the live directory and a
// websocket for the open-conversation view.
type Handler struct {
	directory *chatservice.Directory
	ledger    *chatservice.Ledger
}

// New creates the chat handler.
func New(directory *chatservice.Directory, ledger *chatservice.Ledger) *Handler {
	return &Handler{directory: directory, ledger: ledger}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversations", h.handleCreateConversation)
	r.Get("/conversations/stream", h.handleConversationStream)
	r.Post("/conversations/{conversationID}/messages", h.handleSend)
	r.Post("/conversations/{conversationID}/read", h.handleMarkRead)
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.directory.CreateConversation(r.Context(), caller)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if err := h.ledger.Send(r.Context(), conversationID, caller, payload.Message); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if err := h.ledger.MarkRead(r.Context(), conversationID, caller.UID); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConversationStream pushes the caller's filtered, sorted conversation
// list over SSE, re-sent in full on every change.
func (h *Handler) handleConversationStream(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream, err := h.directory.SubscribeConversations(r.Context(), caller)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)
	log.Printf("[chat] conversation stream opened for %s", caller.UID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[chat] conversation stream closed for %s", caller.UID)
			return
		case list, open := <-stream.Updates():
			if !open {
				return
			}
			utils.SendSSEEvent(w, flusher, "conversations", list)
		}
	}
}

// statusFor maps service and store failures onto HTTP statuses: validation
// stays 400, permission problems 403, a missing record 404 and an unreachable
// backend 503.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrEmptyMessage),
		errors.Is(err, chatservice.ErrNoConversation),
		errors.Is(err, chatservice.ErrUnknownCaller):
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
