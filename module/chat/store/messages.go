package store

import (
	"context"
	"time"

	chatmodel "CityTalk/module/chat/model"
	usermodel "CityTalk/module/user/model"
	"CityTalk/tools/ids"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageStore persists room messages to mongo. A message gets its id and
// timestamp here; the returned record is what the gateway broadcasts, so
// every client converges on the durable view.
type MessageStore struct {
	db *mongo.Database
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{db: db}
}

// Create writes the message and returns the enriched record. The sender
// profile is snapshotted into the document; display-name changes after the
// fact do not rewrite history.
func (s *MessageStore) Create(ctx context.Context, roomID string, sender *usermodel.UserProfile, content string) (*chatmodel.Message, error) {
	msg := &chatmodel.Message{
		MessageID: ids.GenerateString(),
		RoomID:    roomID,
		SenderID:  sender.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Sender:    sender,
	}
	if _, err := s.db.Collection(chatmodel.MsgCollection).InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	return msg, nil
}
