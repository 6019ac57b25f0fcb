package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"energy-dashboard/internal/dashboard"
)

const sendBuffer = 64

// Handler принимает WebSocket подключения; у каждого подключения своя сессия
type Handler struct {
	hub      *Hub
	builder  dashboard.Builder
	upgrader websocket.Upgrader
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler создает обработчик. Пустой allowedOrigins или "*" разрешает любой Origin.
func NewHandler(hub *Hub, builder dashboard.Builder, allowedOrigins []string, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:     hub,
		builder: builder,
		logger:  logger,
		now:     time.Now,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	session := dashboard.NewSession(h.builder)

	h.hub.Register(client)
	go client.writePump()

	h.logger.Info("Live session opened", zap.String("session_id", session.ID))
	h.send(client, TypeSession, SessionPayload{SessionID: session.ID})

	h.readPump(client, session)
}

func (h *Handler) readPump(c *Client, session *dashboard.Session) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		session.Close()
		h.hub.Unregister(c)
		c.conn.Close()
		h.logger.Info("Live session closed", zap.String("session_id", session.ID))
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.handleMessage(ctx, c, session, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, session *dashboard.Session, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.send(c, TypeError, ErrorPayload{Error: "invalid message"})
		return
	}

	switch env.Type {
	case TypeView:
		var p ViewPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.send(c, TypeError, ErrorPayload{Error: "invalid view payload"})
			return
		}
		q, err := dashboard.ParseQuery(p.Participant, p.Date, p.View, h.now())
		if err != nil {
			h.send(c, TypeError, ErrorPayload{RequestID: p.RequestID, Error: err.Error()})
			return
		}
		// Номер резервируется в порядке прихода сообщений
		ticket := session.Begin(ctx)
		go h.view(c, session, ticket, p.RequestID, q)

	default:
		h.send(c, TypeError, ErrorPayload{Error: "unknown message type: " + env.Type})
	}
}

func (h *Handler) view(c *Client, session *dashboard.Session, ticket *dashboard.Ticket, requestID string, q dashboard.Query) {
	snap, err := ticket.Run(q)
	switch {
	case errors.Is(err, dashboard.ErrSuperseded):
		h.logger.Debug("Dropping superseded result",
			zap.String("session_id", session.ID),
			zap.String("request_id", requestID),
		)
	case err != nil:
		h.send(c, TypeError, ErrorPayload{RequestID: requestID, Error: err.Error()})
	default:
		h.send(c, TypeSnapshot, SnapshotPayload{RequestID: requestID, Snapshot: snap})
	}
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	if !c.trySend(msg) {
		h.logger.Warn("Client buffer full or closed, dropping message", zap.String("type", msgType))
	}
}
