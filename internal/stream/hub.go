// Package stream pushes live session updates to connected browsers over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"codinground/internal/models"
	"codinground/internal/session"
)

// Event types sent to clients.
const (
	EventTick              = "tick"
	EventMessage           = "message"
	EventSpeak             = "speak"
	EventCaptureScreenshot = "capture_screenshot"
	EventNavigate          = "navigate"
	EventPhase             = "phase"
)

var ErrNoClients = errors.New("no client connected to session")

// Message is the envelope written to the socket.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	At        time.Time   `json:"at"`
}

type broadcast struct {
	sessionID string
	payload   []byte
}

// Hub fans session events out to that session's sockets.
type Hub struct {
	logger *zap.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan broadcast
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]map[*client]bool // sessionID -> clients
}

var (
	_ session.Speaker         = (*Hub)(nil)
	_ session.ScreenshotTaker = (*Hub)(nil)
	_ session.Navigator       = (*Hub)(nil)
	_ session.Listener        = (*Hub)(nil)
)

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan broadcast, 256),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*client]bool),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[*client]bool)
			}
			h.clients[c.sessionID][c] = true
			h.mu.Unlock()
			h.logger.Debug("stream client registered", zap.String("session_id", c.sessionID))

		case c := <-h.unregister:
			h.remove(c)

		case b := <-h.broadcast:
			h.mu.RLock()
			var slow []*client
			for c := range h.clients[b.sessionID] {
				select {
				case c.send <- b.payload:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.remove(c)
			}

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
	h.logger.Debug("stream client unregistered", zap.String("session_id", c.sessionID))
}

// Connected reports how many sockets a session has.
func (h *Hub) Connected(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Send queues an event for a session. It drops the event when the queue is full.
func (h *Hub) Send(sessionID, eventType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: eventType, SessionID: sessionID, Data: data, At: time.Now()})
	if err != nil {
		h.logger.Error("failed to marshal stream event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- broadcast{sessionID: sessionID, payload: payload}:
	default:
		h.logger.Warn("stream queue full, dropping event", zap.String("session_id", sessionID), zap.String("type", eventType))
	}
}

func (h *Hub) Speak(ctx context.Context, sessionID, text string) error {
	h.Send(sessionID, EventSpeak, map[string]string{"text": text})
	return nil
}

// Capture asks the browser for a screenshot; it fails when nobody is connected.
func (h *Hub) Capture(ctx context.Context, sessionID string) error {
	if h.Connected(sessionID) == 0 {
		return ErrNoClients
	}
	h.Send(sessionID, EventCaptureScreenshot, nil)
	return nil
}

// Navigate tells the browser to leave. The HTTP response carries the same URL,
// so a missing socket is not an error.
func (h *Hub) Navigate(ctx context.Context, sessionID, url string) error {
	h.Send(sessionID, EventNavigate, map[string]string{"url": url})
	return nil
}

func (h *Hub) Tick(sessionID string, remaining int) {
	h.Send(sessionID, EventTick, map[string]int{"remaining_seconds": remaining})
}

func (h *Hub) Message(sessionID, interactionID string, msg models.ChatMessage) {
	h.Send(sessionID, EventMessage, map[string]interface{}{
		"interaction_id": interactionID,
		"message":        msg,
	})
}

func (h *Hub) PhaseChanged(sessionID string, phase session.Phase) {
	h.Send(sessionID, EventPhase, map[string]string{"phase": string(phase)})
}
