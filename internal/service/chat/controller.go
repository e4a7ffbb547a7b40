package chat

import (
	"context"
	"sync"

	"github.com/codefyre/backend/internal/model/identity"
)

// Controller is the per-view conversation lifecycle glue: selecting a
// conversation opens its live message window and marks the backlog read,
// deselecting (or selecting another) disposes the previous subscription. It
// holds no durable state beyond the current selection.
type Controller struct {
	ledger *Ledger

	mu       sync.Mutex
	selected string
	stream   *MessageStream
}

// NewController builds a controller for one open view.
func NewController(ledger *Ledger) *Controller {
	return &Controller{ledger: ledger}
}

// Select switches the view to a conversation: any previous subscription is
// closed, a fresh message stream is opened and the caller's unread backlog is
// marked read.
func (c *Controller) Select(ctx context.Context, conversationID string, caller identity.Identity) (*MessageStream, error) {
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	stream, err := c.ledger.SubscribeMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	prev := c.stream
	c.selected = conversationID
	c.stream = stream
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	if err := c.ledger.MarkRead(ctx, conversationID, caller.UID); err != nil {
		stream.Close()
		c.mu.Lock()
		if c.stream == stream {
			c.selected = ""
			c.stream = nil
		}
		c.mu.Unlock()
		return nil, err
	}
	return stream, nil
}

// Deselect closes the current subscription, if any.
func (c *Controller) Deselect() {
	c.mu.Lock()
	stream := c.stream
	c.selected = ""
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
}

// Selected reports the currently selected conversation, empty when none.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}
