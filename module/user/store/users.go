package store

import (
	"context"

	"CityTalk/module/user/model"
	"CityTalk/service/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Store reads user master records from postgres and mirrors the volatile
// online flag into redis so it can be read without a gateway round trip.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetProfile resolves a user id to its gateway projection.
// Returns (nil, nil) when the user does not exist or is banned/closed.
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	const q = `
SELECT user_id, display_name, avatar_url, role
FROM users
WHERE user_id = $1 AND status = 0`

	p := &model.UserProfile{}
	err := s.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user profile")
	}
	return p, nil
}

// MarkOnline flips the online flag and refreshes last-seen, in both stores.
func (s *Store) MarkOnline(ctx context.Context, userID string) error {
	const q = `UPDATE users SET is_online = TRUE, last_seen_at = now() WHERE user_id = $1`
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return errors.Wrap(err, "mark online")
	}
	return storage.SetOnline(ctx, userID)
}

// MarkOffline clears the online flag and stamps last-seen.
func (s *Store) MarkOffline(ctx context.Context, userID string) error {
	const q = `UPDATE users SET is_online = FALSE, last_seen_at = now() WHERE user_id = $1`
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return errors.Wrap(err, "mark offline")
	}
	return storage.SetOffline(ctx, userID)
}
