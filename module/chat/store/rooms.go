package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// RoomStore answers persisted-membership questions for the gateway. This is
// the authorization-bearing relation; the gateway's in-memory sets are only a
// routing index derived from it.
type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// IsMember reports whether userID is a persisted member of roomID. Consulted
// on every join AND every send: a revoked membership must take effect even
// while the old connection is still subscribed.
func (s *RoomStore) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, roomID, userID).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "query room membership")
	}
	return ok, nil
}
