package gateway

import (
	"context"

	chatmodel "CityTalk/module/chat/model"
	usermodel "CityTalk/module/user/model"
)

// External collaborators. The gateway consults these but does not own them;
// production wiring binds them to postgres/mongo/redis, tests bind fakes.

// UserStore resolves accounts and records online transitions.
type UserStore interface {
	// GetProfile returns (nil, nil) when the user does not exist.
	GetProfile(ctx context.Context, userID string) (*usermodel.UserProfile, error)
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

// RoomAuthStore answers persisted room-membership questions. Consulted on
// every join and on every send.
type RoomAuthStore interface {
	IsMember(ctx context.Context, userID, roomID string) (bool, error)
}

// MessageStore durably persists a message and returns the enriched record.
type MessageStore interface {
	Create(ctx context.Context, roomID string, sender *usermodel.UserProfile, content string) (*chatmodel.Message, error)
}
