package live

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"energy-dashboard/internal/metrics"
)

// Client подключенный WebSocket клиент
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Hub хранит клиентов и рассылает им сообщения
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *zap.Logger
}

// NewHub создает хаб
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

// Register добавляет клиента
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	metrics.LiveConnections.Inc()
}

// Unregister удаляет клиента и закрывает его очередь отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
		metrics.LiveConnections.Dec()
	}
}

// Broadcast отправляет сообщение всем клиентам
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.trySend(msg) {
			h.logger.Warn("Client buffer full, dropping message")
		}
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CategoriesUpdated рассылает клиентам уведомление о перезагрузке категорий
func (h *Hub) CategoriesUpdated() {
	msg, err := NewEnvelope(TypeCategoriesUpdated, nil)
	if err != nil {
		return
	}
	h.Broadcast(msg)
}

// trySend ставит сообщение в очередь; false если очередь полна или закрыта
func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
