package model

import "time"

// Room is a persisted chat room. Rooms are created through the HTTP CRUD
// surface; the gateway only reads them for authorization.
type Room struct {
	RoomID      string    `json:"roomId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CityID      string    `json:"cityId"` // optional link to a city page
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomMember is the authorization-bearing user-room relation. Tracked (in
// memory) membership in the gateway is a separate, ephemeral thing derived
// from live connections.
type RoomMember struct {
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	Role     string    `json:"role"` // member / moderator / owner
	JoinedAt time.Time `json:"joinedAt"`
}
