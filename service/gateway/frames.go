package gateway

import (
	"encoding/json"
	"fmt"

	chatmodel "CityTalk/module/chat/model"
	usermodel "CityTalk/module/user/model"
)

// Wire protocol: every frame is a JSON object {"type": "...", "payload": {...}}.
// The first frame on a connection must be "auth"; nothing else is processed
// until the handshake completes.

// inbound
const (
	EventAuth   = "auth"
	EventJoin   = "join_room"
	EventLeave  = "leave_room"
	EventSend   = "send_message"
	EventTyping = "typing"
)

// outbound
const (
	EventAuthAck     = "auth_ack"
	EventJoined      = "joined_room"
	EventLeft        = "left_room"
	EventNewMessage  = "new_message"
	EventMessageSent = "message_sent"
	EventMembers     = "online_members_update"
	EventUserTyping  = "user_typing"
	EventUserOffline = "user_offline"
	EventError       = "error"
)

type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("frame missing type")
	}
	return f, nil
}

// ---- inbound payloads (decoded via the dispatcher) ----

type AuthPayload struct {
	Token string `mapstructure:"token" json:"token"`
}

type JoinPayload struct {
	RoomID string `mapstructure:"roomId"`
}

type LeavePayload struct {
	RoomID string `mapstructure:"roomId"`
}

type SendPayload struct {
	RoomID  string `mapstructure:"roomId"`
	Content string `mapstructure:"content"`
}

type TypingPayload struct {
	RoomID   string `mapstructure:"roomId"`
	IsTyping bool   `mapstructure:"isTyping"`
}

// ---- outbound payloads ----

type AuthAckPayload struct {
	UserID string `json:"userId"`
}

type RoomAckPayload struct {
	RoomID string `json:"roomId"`
}

type MembersPayload struct {
	RoomID        string                   `json:"roomId"`
	OnlineMembers []*usermodel.UserProfile `json:"onlineMembers"`
}

type MessageSentPayload struct {
	MessageID string             `json:"messageId"`
	Message   *chatmodel.Message `json:"message"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type UserOfflinePayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// BuildFrame marshals an outbound frame. Payloads are our own structs, so a
// marshal failure is a programming error; it degrades to an empty payload.
func BuildFrame(eventType string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	out, _ := json.Marshal(&Frame{Type: eventType, Payload: raw})
	return out
}
