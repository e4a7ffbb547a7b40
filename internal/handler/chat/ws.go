package chat

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	modelchat "github.com/codefyre/backend/internal/model/chat"
	"github.com/codefyre/backend/internal/model/identity"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	"github.com/codefyre/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message,omitempty"`
}

type outboundFrame struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversationId,omitempty"`
	Messages       []modelchat.Message `json:"messages,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(frame outboundFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(frame); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// handleWebSocket runs the open-conversation view protocol: the client
// selects a conversation to open its live window (which also marks the
// backlog read), sends messages into the selection and deselects when
// navigating away. One conversation is open per socket at a time.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] chat view opened for %s", caller.UID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	wc := &wsConn{conn: conn}
	go pingLoop(ctx, wc)

	ctrl := chatservice.NewController(h.ledger)
	defer ctrl.Deselect()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch frame.Type {
		case "select":
			h.handleSelect(ctx, wc, ctrl, caller, frame.ConversationID)
		case "send":
			target := frame.ConversationID
			if target == "" {
				target = ctrl.Selected()
			}
			if err := h.ledger.Send(ctx, target, caller, frame.Message); err != nil {
				wc.send(outboundFrame{Type: "error", Error: err.Error()})
			}
		case "deselect":
			ctrl.Deselect()
		default:
			wc.send(outboundFrame{Type: "error", Error: "unsupported frame type: " + frame.Type})
		}
	}
}

func (h *Handler) handleSelect(ctx context.Context, wc *wsConn, ctrl *chatservice.Controller, caller identity.Identity, conversationID string) {
	stream, err := ctrl.Select(ctx, conversationID, caller)
	if err != nil {
		wc.send(outboundFrame{Type: "error", Error: err.Error()})
		return
	}

	// Forward the live window until the selection changes and the stream is
	// disposed underneath us.
	go func() {
		for list := range stream.Updates() {
			wc.send(outboundFrame{
				Type:           "messages",
				ConversationID: conversationID,
				Messages:       list,
			})
		}
	}()
}

func pingLoop(ctx context.Context, wc *wsConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		}
	}
}
