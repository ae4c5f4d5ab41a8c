package model

import "time"

// Role levels
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Status
const (
	UserNormal int32 = 0
	UserBanned int32 = 1
	UserClosed int32 = 2
)

// User is the master record for a platform account (profiles, reviews and
// posts hang off this id). Preferences/devices live in their own tables.
type User struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	Role        string    `json:"role"`
	Status      int32     `json:"status"`
	IsOnline    bool      `json:"isOnline"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserProfile is the projection attached to gateway connections and embedded
// in broadcast frames (member lists, enriched messages).
type UserProfile struct {
	UserID      string `json:"id" bson:"user_id"`
	DisplayName string `json:"displayName" bson:"display_name"`
	AvatarURL   string `json:"avatarUrl" bson:"avatar_url"`
	Role        string `json:"role" bson:"role"`
}

func (u *User) Profile() *UserProfile {
	return &UserProfile{
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
	}
}
