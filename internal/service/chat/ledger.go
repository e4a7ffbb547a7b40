package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/codefyre/backend/internal/model/chat"
	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/internal/store"
)

// DefaultWindow bounds the live message view to the most recent entries.
const DefaultWindow = 100

// messageDoc is the stored shape of a ledger entry.
type messageDoc struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}

// Ledger is the per-conversation append-only message sequence with a bounded
// live window and read-flag transitions.
type Ledger struct {
	store  store.Store
	window int
	now    func() int64
}

// NewLedger wires the ledger to its store. window <= 0 falls back to
// DefaultWindow.
func NewLedger(st store.Store, window int) *Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Ledger{
		store:  st,
		window: window,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

func messagesPath(conversationID string) string {
	return basePath + "/" + conversationID + "/messages"
}

// MessageStream is a live ascending-by-timestamp view of one conversation's
// recent messages.
type MessageStream struct {
	sub  store.Subscription
	ch   chan []chat.Message
	done chan struct{}
	once sync.Once
}

// Updates returns the live message-list channel.
func (s *MessageStream) Updates() <-chan []chat.Message {
	return s.ch
}

// Close disposes the underlying store subscription. Idempotent.
func (s *MessageStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// SubscribeMessages opens the bounded live window over a conversation's
// ledger. Messages older than the window are invisible to this view; there is
// no pagination or backfill.
func (l *Ledger) SubscribeMessages(ctx context.Context, conversationID string) (*MessageStream, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	sub, err := l.store.Subscribe(ctx, messagesPath(conversationID), store.Query{
		OrderBy:     "timestamp",
		LimitToLast: l.window,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe messages: %w", err)
	}

	stream := &MessageStream{
		sub:  sub,
		ch:   make(chan []chat.Message),
		done: make(chan struct{}),
	}

	go func() {
		defer close(stream.ch)
		for snap := range sub.Updates() {
			select {
			case stream.ch <- decodeMessages(snap):
			case <-stream.done:
				return
			}
		}
	}()

	return stream, nil
}

// Send appends a message and then updates the conversation's denormalized
// summary. The two writes are independent: a failure between them leaves the
// summary stale until the next successful Send overwrites it.
func (l *Ledger) Send(ctx context.Context, conversationID string, sender identity.Identity, body string) error {
	if conversationID == "" {
		return ErrNoConversation
	}
	if body == "" {
		return ErrEmptyMessage
	}
	if sender.UID == "" {
		return ErrUnknownCaller
	}

	now := l.now()
	msg := messageDoc{
		SenderID:   sender.UID,
		SenderName: sender.Name,
		Message:    body,
		Timestamp:  now,
	}
	if _, err := l.store.Create(ctx, messagesPath(conversationID), msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if err := l.updateSummary(ctx, conversationID, body, now, sender.UID); err != nil {
		// The ledger write already landed; the summary catches up with the
		// next message.
		log.Printf("[chat] summary update failed for %s: %v", conversationID, err)
		return fmt.Errorf("update summary: %w", err)
	}
	return nil
}

func (l *Ledger) updateSummary(ctx context.Context, conversationID, body string, ts int64, senderID string) error {
	path := basePath + "/" + conversationID
	data, err := l.store.Get(ctx, path)
	if err != nil {
		return err
	}
	var doc conversationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode conversation: %w", err)
	}
	doc.Metadata = chat.Summary{
		LastMessage:     body,
		LastMessageTime: ts,
		LastSenderID:    senderID,
	}
	return l.store.Write(ctx, path, doc)
}

// MarkRead scans the conversation once and flips the read flag on every
// message sent by someone else. Each flip is an individual write; messages
// arriving mid-scan are picked up by the next invocation.
func (l *Ledger) MarkRead(ctx context.Context, conversationID, readerUID string) error {
	if conversationID == "" {
		return ErrNoConversation
	}
	if readerUID == "" {
		return ErrUnknownCaller
	}

	snap, err := l.store.ReadOnce(ctx, messagesPath(conversationID))
	if err != nil {
		return fmt.Errorf("read messages: %w", err)
	}

	for _, rec := range snap {
		var doc messageDoc
		if err := json.Unmarshal(rec.Value, &doc); err != nil {
			log.Printf("[chat] skipping malformed message %s: %v", rec.Key, err)
			continue
		}
		if doc.SenderID == readerUID || doc.Read {
			continue
		}
		doc.Read = true
		if err := l.store.Write(ctx, rec.Key, doc); err != nil {
			return fmt.Errorf("mark %s read: %w", rec.Key, err)
		}
	}
	return nil
}

func decodeMessages(snap store.Snapshot) []chat.Message {
	list := make([]chat.Message, 0, len(snap))
	for _, rec := range snap {
		var msg chat.Message
		if err := json.Unmarshal(rec.Value, &msg); err != nil {
			log.Printf("[chat] skipping malformed message %s: %v", rec.Key, err)
			continue
		}
		msg.ID = store.ChildKey(rec.Key)
		list = append(list, msg)
	}
	return list
}
