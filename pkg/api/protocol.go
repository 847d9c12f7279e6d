// Package api описывает сообщения между двумя агентами-партнерами.
// Транспорт не важен: конверт одинаково ходит через in-memory шину и websocket.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType - тег сообщения
type MessageType string

const (
	MsgHandshake    MessageType = "HANDSHAKE"
	MsgHandshakeAck MessageType = "HANDSHAKE_ACK"
	MsgAgentInfo    MessageType = "AGENT_INFO"
	MsgIntention    MessageType = "INTENTION"
	MsgCollision    MessageType = "COLLISION"
	MsgHandoverRole MessageType = "HANDOVER_ROLE"

	// MsgHello - служебное сообщение регистрации на ретрансляторе
	MsgHello MessageType = "HELLO"
)

// Envelope - корневой объект любого сообщения между агентами.
type Envelope struct {
	// ID уникален для каждого отправленного сообщения.
	// Канал ненадежный и может дублировать доставку, получатель отбрасывает повторы.
	ID string `json:"id"`

	Type MessageType `json:"type"`

	// SenderID - ID агента-отправителя
	SenderID string `json:"senderId"`

	// To - адресат. Пусто для широковещательного "shout".
	To string `json:"to,omitempty"`

	// SentAt - Unix milliseconds
	SentAt int64 `json:"sentAt"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope упаковывает payload в конверт с новым ID
func NewEnvelope(t MessageType, senderID, to string, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		raw = b
	}
	return Envelope{
		ID:       uuid.NewString(),
		Type:     t,
		SenderID: senderID,
		To:       to,
		SentAt:   time.Now().UnixMilli(),
		Payload:  raw,
	}, nil
}

// --- Payloads ---

// PositionView - координаты клетки
type PositionView struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// HandshakePayload используется в HANDSHAKE и HANDSHAKE_ACK.
// Содержит позицию отправителя на момент отправки.
type HandshakePayload struct {
	SenderID string `json:"senderId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// AgentView - снимок одного агента в AGENT_INFO
type AgentView struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Carried int    `json:"carried"`
}

// AgentInfoPayload - сам отправитель (первым) и все агенты, которых он видит
type AgentInfoPayload struct {
	Agents []AgentView `json:"list"`
}

// IntentionPayload - посылка, которую отправитель собирается подобрать.
// Пустой ItemID означает, что намерения нет.
type IntentionPayload struct {
	ItemID  string  `json:"itemId"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Utility float64 `json:"utility"`
}

// CollisionType - фаза подпротокола разрешения столкновений
type CollisionType string

const (
	CollisionMove  CollisionType = "MOVE"  // инициатор просит освободить клетку
	CollisionMoved CollisionType = "MOVED" // ответчик освободил клетку (или не смог)
	CollisionEnd   CollisionType = "END"   // инициатор закрыл сессию
)

// CollisionPayload - X,Y: клетка, которую нужно освободить
type CollisionPayload struct {
	Type CollisionType `json:"type"`
	X    int           `json:"x"`
	Y    int           `json:"y"`
}

// HandoverRolePayload - объявление своей роли в режиме передачи
type HandoverRolePayload struct {
	Role         string       `json:"role"`
	HandoverTile PositionView `json:"handoverTile"`
	// NeedReply - отправитель еще не знает роль получателя
	NeedReply    bool         `json:"needReply,omitempty"`
}
