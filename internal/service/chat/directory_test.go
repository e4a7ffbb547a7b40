package chat_test

import (
	"context"
	"testing"
	"time"

	modelchat "github.com/codefyre/backend/internal/model/chat"
	"github.com/codefyre/backend/internal/model/identity"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	"github.com/codefyre/backend/internal/store"
)

var (
	visitorV = identity.Identity{UID: "v1", Email: "v1@example.com", Name: "Visitor One", Role: identity.RoleVisitor}
	visitorW = identity.Identity{UID: "v2", Email: "v2@example.com", Name: "Visitor Two", Role: identity.RoleVisitor}
	adminA   = identity.Identity{UID: "a1", Email: "ops@example.com", Name: "Operator", Role: identity.RoleAdmin}
)

func recvConversations(t *testing.T, s *chatservice.ConversationStream) []modelchat.Conversation {
	t.Helper()
	select {
	case list, ok := <-s.Updates():
		if !ok {
			t.Fatal("conversation stream closed unexpectedly")
		}
		return list
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for conversation list")
	}
	return nil
}

func TestCreateConversationParticipants(t *testing.T) {
	m := store.NewMemory()
	dir := chatservice.NewDirectory(m)
	ctx := context.Background()

	id, err := dir.CreateConversation(ctx, visitorV)
	if err != nil {
		t.Fatalf("CreateConversation err: %v", err)
	}
	if id == "" {
		t.Fatal("expected conversation id")
	}

	stream, err := dir.SubscribeConversations(ctx, adminA)
	if err != nil {
		t.Fatalf("SubscribeConversations err: %v", err)
	}
	defer stream.Close()

	list := recvConversations(t, stream)
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	conv := list[0]
	if conv.ID != id {
		t.Fatalf("unexpected id: got %s want %s", conv.ID, id)
	}
	if conv.CreatedBy != visitorV.UID || conv.CreatedByEmail != visitorV.Email {
		t.Fatalf("unexpected creator: %+v", conv)
	}
	if !conv.HasParticipant(visitorV.UID) || !conv.HasParticipant(modelchat.AdminParticipant) {
		t.Fatalf("unexpected participants: %v", conv.Participants)
	}
	if conv.Metadata.LastMessage != "" || conv.Metadata.LastMessageTime != 0 {
		t.Fatalf("expected empty summary, got %+v", conv.Metadata)
	}
}

func TestCreateConversationRequiresCaller(t *testing.T) {
	dir := chatservice.NewDirectory(store.NewMemory())
	if _, err := dir.CreateConversation(context.Background(), identity.Identity{}); err == nil {
		t.Fatal("expected error for missing caller")
	}
}

func TestCreateConversationNoDedup(t *testing.T) {
	m := store.NewMemory()
	dir := chatservice.NewDirectory(m)
	ctx := context.Background()

	first, _ := dir.CreateConversation(ctx, visitorV)
	second, err := dir.CreateConversation(ctx, visitorV)
	if err != nil {
		t.Fatalf("second CreateConversation err: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct conversation ids")
	}

	stream, _ := dir.SubscribeConversations(ctx, visitorV)
	defer stream.Close()
	if list := recvConversations(t, stream); len(list) != 2 {
		t.Fatalf("expected 2 parallel conversations, got %d", len(list))
	}
}

func TestVisibilityAdminSeesAll(t *testing.T) {
	m := store.NewMemory()
	dir := chatservice.NewDirectory(m)
	ctx := context.Background()

	dir.CreateConversation(ctx, visitorV)
	dir.CreateConversation(ctx, visitorW)

	stream, err := dir.SubscribeConversations(ctx, adminA)
	if err != nil {
		t.Fatalf("SubscribeConversations err: %v", err)
	}
	defer stream.Close()

	if list := recvConversations(t, stream); len(list) != 2 {
		t.Fatalf("admin should see 2 conversations, got %d", len(list))
	}
}

func TestVisibilityVisitorSeesOwnOnly(t *testing.T) {
	m := store.NewMemory()
	dir := chatservice.NewDirectory(m)
	ctx := context.Background()

	own, _ := dir.CreateConversation(ctx, visitorV)
	dir.CreateConversation(ctx, visitorW)

	stream, err := dir.SubscribeConversations(ctx, visitorV)
	if err != nil {
		t.Fatalf("SubscribeConversations err: %v", err)
	}
	defer stream.Close()

	list := recvConversations(t, stream)
	if len(list) != 1 {
		t.Fatalf("visitor should see 1 conversation, got %d", len(list))
	}
	if list[0].ID != own {
		t.Fatalf("visitor sees wrong conversation: %s", list[0].ID)
	}
}

func TestDirectoryOrdersByRecency(t *testing.T) {
	m := store.NewMemory()
	dir := chatservice.NewDirectory(m)
	ledger := chatservice.NewLedger(m, 0)
	ctx := context.Background()

	older, _ := dir.CreateConversation(ctx, visitorV)
	newer, _ := dir.CreateConversation(ctx, visitorV)
	idle, _ := dir.CreateConversation(ctx, visitorV)

	if err := ledger.Send(ctx, older, visitorV, "first"); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := ledger.Send(ctx, newer, visitorV, "second"); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	stream, _ := dir.SubscribeConversations(ctx, adminA)
	defer stream.Close()

	var list []modelchat.Conversation
	deadline := time.After(2 * time.Second)
	for {
		list = recvConversations(t, stream)
		if len(list) == 3 && list[0].Metadata.LastMessage == "second" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("directory never settled: %+v", list)
		default:
		}
	}

	if list[0].ID != newer || list[1].ID != older {
		t.Fatalf("unexpected recency order: %s, %s", list[0].ID, list[1].ID)
	}
	// The conversation with no messages sorts last.
	if list[2].ID != idle {
		t.Fatalf("expected idle conversation last, got %s", list[2].ID)
	}
}
