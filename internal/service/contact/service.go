// Package contact manages callback requests captured from the contact form.
// Requests live in the realtime store so the operator's request board updates
// live as visitors submit and statuses change.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/codefyre/backend/internal/model/contact"
	"github.com/codefyre/backend/internal/store"
)

const basePath = "requests"

var (
	ErrMissingContact = errors.New("email and phone are required")
	ErrInvalidStatus  = errors.New("unknown request status")
)

// requestDoc is the stored shape of a callback request.
type requestDoc struct {
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Phone     string                `json:"phone"`
	Subject   string                `json:"subject"`
	Message   string                `json:"message"`
	Status    contact.RequestStatus `json:"status"`
	CreatedAt int64                 `json:"createdAt"`
}

// Service owns the callback request collection.
type Service struct {
	store store.Store
}

// NewService wires the service to its realtime store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create records a new pending request. Email and phone are validated before
// anything reaches the store.
func (s *Service) Create(ctx context.Context, req contact.Request) (string, error) {
	if req.Email == "" || req.Phone == "" {
		return "", ErrMissingContact
	}

	doc := requestDoc{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    contact.StatusPending,
		CreatedAt: time.Now().UnixMilli(),
	}
	id, err := s.store.Create(ctx, basePath, doc)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	log.Printf("[contact] callback request %s from %s", id, req.Email)
	return id, nil
}

// UpdateStatus moves a request between the pending/contacted/resolved states.
func (s *Service) UpdateStatus(ctx context.Context, id string, status contact.RequestStatus) error {
	if !contact.ValidStatus(status) {
		return ErrInvalidStatus
	}

	path := basePath + "/" + id
	data, err := s.store.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	var doc requestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	doc.Status = status
	if err := s.store.Write(ctx, path, doc); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

// RequestStream is a live, newest-first view of the request board.
type RequestStream struct {
	sub  store.Subscription
	ch   chan []contact.Request
	done chan struct{}
	once sync.Once
}

// Updates returns the live request-list channel.
func (s *RequestStream) Updates() <-chan []contact.Request {
	return s.ch
}

// Close disposes the underlying store subscription. Idempotent.
func (s *RequestStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// SubscribeRequests opens the live request board. Caller authorization is the
// handler's job; the store itself does not scope this collection.
func (s *Service) SubscribeRequests(ctx context.Context) (*RequestStream, error) {
	sub, err := s.store.Subscribe(ctx, basePath, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("subscribe requests: %w", err)
	}

	stream := &RequestStream{
		sub:  sub,
		ch:   make(chan []contact.Request),
		done: make(chan struct{}),
	}

	go func() {
		defer close(stream.ch)
		for snap := range sub.Updates() {
			select {
			case stream.ch <- decodeRequests(snap):
			case <-stream.done:
				return
			}
		}
	}()

	return stream, nil
}

func decodeRequests(snap store.Snapshot) []contact.Request {
	list := make([]contact.Request, 0, len(snap))
	for _, rec := range snap {
		var req contact.Request
		if err := json.Unmarshal(rec.Value, &req); err != nil {
			log.Printf("[contact] skipping malformed request %s: %v", rec.Key, err)
			continue
		}
		req.ID = store.ChildKey(rec.Key)
		list = append(list, req)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
	return list
}
