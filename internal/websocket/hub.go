package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
)

const (
	// Inbound messages allowed per client per second.
	maxMessagesPerSecond = 10

	EventPong = "pong"
)

// ClientMessage is a message received from a browser.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Event is pushed to every session of a user.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// Client is one websocket session.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uint
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// NewClient returns a client with a buffered send queue.
func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Send:          make(chan []byte, 256),
		LastResetTime: time.Now(),
	}
}

// Hub tracks the sessions of each user and fans order events out to them.
type Hub struct {
	// UserID -> sessions, several devices per user
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	direct     chan *directMessage

	mu sync.RWMutex
}

type directMessage struct {
	UserID  uint
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		direct:     make(chan *directMessage, 1024),
	}
}

// Run processes registrations and deliveries until ctx is done. Remaining
// sessions are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.direct:
			h.mu.RLock()
			clientList := h.clients[msg.UserID]
			h.mu.RUnlock()
			for _, client := range clientList {
				select {
				case client.Send <- msg.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.UserID,
					})
				}
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	clientList, ok := h.clients[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if len(newList) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = newList
	}
	if found {
		close(client.Send)
	}
	h.mu.Unlock()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(newList),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clientList := range h.clients {
		for _, c := range clientList {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// SendToUser queues message for every session of userID. A full queue
// drops the message.
func (h *Hub) SendToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}

	select {
	case h.direct <- &directMessage{UserID: userID, Message: data}:
	default:
		logger.Warn("Direct channel full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// NotifyOrder pushes an order lifecycle event to the owner's sessions.
func (h *Hub) NotifyOrder(userID uint, eventType string, payload interface{}) {
	if !h.IsUserOnline(userID) {
		return
	}
	_ = h.SendToUser(userID, Event{Type: eventType, Payload: payload, SentAt: time.Now()})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SessionCount returns the number of open sessions for userID.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// HandleClientMessage answers keepalive pings. Clients over the rate limit
// are ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		_ = h.SendToUser(client.UserID, Event{Type: EventPong, SentAt: now})
	}
}
