// Package inbox manages contact-form messages kept in the relational store:
// visitors file them, admins read them.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codefyre/backend/internal/model/contact"
	"github.com/codefyre/backend/internal/model/identity"
)

var (
	ErrMissingFields = errors.New("subject and message are required")
	ErrNotAdmin      = errors.New("admin role required")
)

// MessageRepository is the relational access the inbox needs.
type MessageRepository interface {
	Insert(ctx context.Context, msg *contact.Message) error
	ListAll(ctx context.Context) ([]contact.Message, error)
	ListBySender(ctx context.Context, senderID string) ([]contact.Message, error)
	SetStatus(ctx context.Context, id, status string) error
}

// Service applies inbox scoping and read-state rules over the repository.
type Service struct {
	repo MessageRepository
}

// NewService wires the inbox to its repository.
func NewService(repo MessageRepository) *Service {
	return &Service{repo: repo}
}

// Create files a new unread message from the caller.
func (s *Service) Create(ctx context.Context, caller identity.Identity, subject, body string) (contact.Message, error) {
	if subject == "" || body == "" {
		return contact.Message{}, ErrMissingFields
	}

	msg := contact.Message{
		ID:          uuid.NewString(),
		SenderID:    caller.UID,
		SenderEmail: caller.Email,
		SenderName:  caller.Name,
		Subject:     subject,
		Message:     body,
		Status:      contact.MessageUnread,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, &msg); err != nil {
		return contact.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// List returns the caller's view of the inbox, newest first: admins see every
// message, visitors only their own.
func (s *Service) List(ctx context.Context, caller identity.Identity) ([]contact.Message, error) {
	if caller.IsAdmin() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListBySender(ctx, caller.UID)
}

// MarkRead flips a message to read. Only admins open the shared inbox, and
// the transition is one-way; re-marking a read message is a no-op.
func (s *Service) MarkRead(ctx context.Context, caller identity.Identity, id string) error {
	if !caller.IsAdmin() {
		return ErrNotAdmin
	}
	if err := s.repo.SetStatus(ctx, id, contact.MessageRead); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
