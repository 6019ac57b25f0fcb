// Package live отдает снимки дашборда по WebSocket: клиент переключает
// участника, дату и вид, сервер присылает пересчитанный снимок
package live

import (
	"encoding/json"

	"energy-dashboard/internal/dashboard"
)

// Envelope оборачивает все сообщения WebSocket
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Типы сообщений
const (
	// Client -> Server
	TypeView = "dashboard:view"

	// Server -> Client
	TypeSession           = "session:ready"
	TypeSnapshot          = "dashboard:snapshot"
	TypeError             = "dashboard:error"
	TypeCategoriesUpdated = "categories:updated"
)

// ViewPayload выбор участника, даты и вида
type ViewPayload struct {
	RequestID   string `json:"request_id,omitempty"`
	Participant string `json:"participant"`
	Date        string `json:"date,omitempty"`
	View        string `json:"view,omitempty"`
}

// SessionPayload сообщает клиенту идентификатор сессии
type SessionPayload struct {
	SessionID string `json:"session_id"`
}

// SnapshotPayload снимок в ответ на запрос
type SnapshotPayload struct {
	RequestID string              `json:"request_id,omitempty"`
	Snapshot  *dashboard.Snapshot `json:"snapshot"`
}

// ErrorPayload ошибка обработки запроса
type ErrorPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// NewEnvelope сериализует сообщение с типом
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
