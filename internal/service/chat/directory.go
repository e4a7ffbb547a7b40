// Package chat implements the realtime two-party conversation subsystem: a
// recency-ordered conversation directory with per-caller visibility, a
// bounded-window message ledger and the per-view lifecycle controller.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/codefyre/backend/internal/model/chat"
	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/internal/store"
)

const basePath = "chats"

var (
	ErrUnknownCaller  = errors.New("caller identity is required")
	ErrNoConversation = errors.New("conversation is required")
	ErrEmptyMessage   = errors.New("message body is empty")
)

// conversationDoc is the stored shape of a conversation record; the key
// carries the identity, so no id field is persisted.
type conversationDoc struct {
	CreatedBy      string          `json:"createdBy"`
	CreatedByEmail string          `json:"createdByEmail"`
	CreatedByName  string          `json:"createdByName"`
	CreatedAt      int64           `json:"createdAt"`
	Participants   map[string]bool `json:"participants"`
	Metadata       chat.Summary    `json:"metadata"`
}

// Directory maintains the conversation set: creation, per-caller visibility
// and the recency-ordered live listing.
type Directory struct {
	store store.Store
}

// NewDirectory wires the directory to its realtime store.
func NewDirectory(st store.Store) *Directory {
	return &Directory{store: st}
}

// CreateConversation writes a fresh conversation owned by the caller. The
// participant set is fixed to the creator plus the admin sentinel and never
// changes afterwards. Multiple parallel conversations per visitor are allowed;
// no dedup is attempted.
func (d *Directory) CreateConversation(ctx context.Context, caller identity.Identity) (string, error) {
	if caller.UID == "" {
		return "", ErrUnknownCaller
	}

	doc := conversationDoc{
		CreatedBy:      caller.UID,
		CreatedByEmail: caller.Email,
		CreatedByName:  caller.Name,
		CreatedAt:      time.Now().UnixMilli(),
		Participants: map[string]bool{
			caller.UID:            true,
			chat.AdminParticipant: true,
		},
	}

	id, err := d.store.Create(ctx, basePath, doc)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	log.Printf("[chat] conversation %s created by %s", id, caller.UID)
	return id, nil
}

// ConversationStream is a live, caller-scoped view of the directory. Every
// update carries the full filtered and sorted list, never a diff.
type ConversationStream struct {
	sub  store.Subscription
	ch   chan []chat.Conversation
	done chan struct{}
	once sync.Once
}

// Updates returns the live conversation-list channel.
func (s *ConversationStream) Updates() <-chan []chat.Conversation {
	return s.ch
}

// Close disposes the underlying store subscription. Idempotent.
func (s *ConversationStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// SubscribeConversations opens a live directory view for the caller. Admins
// observe every conversation; visitors only those whose participant set
// contains their UID. Lists are ordered by last-message recency, with
// conversations that have no messages yet placed last.
func (d *Directory) SubscribeConversations(ctx context.Context, caller identity.Identity) (*ConversationStream, error) {
	if caller.UID == "" {
		return nil, ErrUnknownCaller
	}

	sub, err := d.store.Subscribe(ctx, basePath, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("subscribe conversations: %w", err)
	}

	stream := &ConversationStream{
		sub:  sub,
		ch:   make(chan []chat.Conversation),
		done: make(chan struct{}),
	}

	go func() {
		defer close(stream.ch)
		for snap := range sub.Updates() {
			list := directoryView(snap, caller)
			select {
			case stream.ch <- list:
			case <-stream.done:
				return
			}
		}
	}()

	return stream, nil
}

// directoryView decodes a raw snapshot into the caller's filtered, sorted
// conversation list.
func directoryView(snap store.Snapshot, caller identity.Identity) []chat.Conversation {
	list := make([]chat.Conversation, 0, len(snap))
	for _, rec := range snap {
		var conv chat.Conversation
		if err := json.Unmarshal(rec.Value, &conv); err != nil {
			log.Printf("[chat] skipping malformed conversation %s: %v", rec.Key, err)
			continue
		}
		conv.ID = store.ChildKey(rec.Key)
		if !caller.IsAdmin() && !conv.HasParticipant(caller.UID) {
			continue
		}
		list = append(list, conv)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Metadata.LastMessageTime > list[j].Metadata.LastMessageTime
	})
	return list
}
