package model

import (
	"time"

	usermodel "CityTalk/module/user/model"
)

const MsgCollection = "messages"

// Message is a persisted room message, enriched with a snapshot of the sender
// profile so clients render without a second lookup.
type Message struct {
	MessageID string                 `json:"id" bson:"message_id"`
	RoomID    string                 `json:"roomId" bson:"room_id"`
	SenderID  string                 `json:"userId" bson:"sender_id"`
	Content   string                 `json:"content" bson:"content"`
	CreatedAt time.Time              `json:"createdAt" bson:"created_at"`
	Sender    *usermodel.UserProfile `json:"user" bson:"sender"`
}
