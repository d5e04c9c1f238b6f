// Package ws fans accepted submissions out to dashboard clients watching a
// form event.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Hub struct {
	mu     sync.RWMutex
	events map[uint]map[*websocket.Conn]bool
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		events: make(map[uint]map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) AddConnection(formEventID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.events[formEventID] == nil {
		h.events[formEventID] = make(map[*websocket.Conn]bool)
	}
	h.events[formEventID][conn] = true
	h.logger.Debug("ws client connected",
		zap.Uint("form_event_id", formEventID),
		zap.Int("total", len(h.events[formEventID])))
}

func (h *Hub) RemoveConnection(formEventID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.events[formEventID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.events, formEventID)
		}
		h.logger.Debug("ws client disconnected", zap.Uint("form_event_id", formEventID))
	}
}

func (h *Hub) Broadcast(formEventID uint, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.events[formEventID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Warn("ws marshal failed", zap.Error(err))
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("ws write failed", zap.Error(err))
			conn.Close()
			delete(conns, conn)
		}
	}
}
