package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codefyre/backend/internal/model/identity"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	"github.com/codefyre/backend/internal/store"
)

var (
	testVisitor = identity.Identity{UID: "visitor-1", Email: "v@example.com", Name: "Visitor", Role: identity.RoleVisitor}
	testAdmin   = identity.Identity{UID: "admin-1", Email: "a@example.com", Name: "Admin", Role: identity.RoleAdmin}
)

func setupRouter() (*chi.Mux, *chatservice.Directory, *chatservice.Ledger) {
	st := store.NewMemory()
	directory := chatservice.NewDirectory(st)
	ledger := chatservice.NewLedger(st, 0)
	handler := New(directory, ledger)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, directory, ledger
}

func authedRequest(method, target string, body []byte, caller identity.Identity) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(identity.WithContext(req.Context(), caller))
}

func TestCreateConversation(t *testing.T) {
	r, _, _ := setupRouter()

	req := authedRequest(http.MethodPost, "/conversations", nil, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["id"] == "" {
		t.Fatalf("expected conversation id in response")
	}
}

func TestCreateConversationRequiresIdentity(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestSendMessage(t *testing.T) {
	r, directory, _ := setupRouter()
	convID, err := directory.CreateConversation(context.Background(), testVisitor)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	req := authedRequest(http.MethodPost, "/conversations/"+convID+"/messages", payload, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	r, directory, _ := setupRouter()
	convID, err := directory.CreateConversation(context.Background(), testVisitor)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	payload := []byte(`{"message": ""}`)
	req := authedRequest(http.MethodPost, "/conversations/"+convID+"/messages", payload, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendToMissingConversation(t *testing.T) {
	r, _, _ := setupRouter()

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	req := authedRequest(http.MethodPost, "/conversations/missing/messages", payload, testVisitor)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestMarkRead(t *testing.T) {
	r, directory, ledger := setupRouter()
	convID, err := directory.CreateConversation(context.Background(), testVisitor)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if err := ledger.Send(context.Background(), convID, testVisitor, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	req := authedRequest(http.MethodPost, "/conversations/"+convID+"/read", nil, testAdmin)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestConversationStreamEmitsDirectory(t *testing.T) {
	r, directory, _ := setupRouter()
	if _, err := directory.CreateConversation(context.Background(), testVisitor); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req := authedRequest(http.MethodGet, "/conversations/stream", nil, testVisitor)
	req = req.WithContext(identity.WithContext(ctx, testVisitor))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "event: conversations") {
		t.Fatalf("expected conversations event in stream, got %q", body)
	}
	if !strings.Contains(body, testVisitor.UID) {
		t.Fatalf("expected caller's conversation in stream, got %q", body)
	}
}
