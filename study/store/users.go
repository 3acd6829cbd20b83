package store

import (
	"context"
	"fmt"
	"time"
)

// UpsertUser records userID as active at the given time, creating the row on
// first contact.
func (s *Store) UpsertUser(ctx context.Context, userID int64, at time.Time) error {
	q := s.db.Rebind(`
		INSERT INTO users (user_id, last_active) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET last_active = excluded.last_active`)
	if _, err := s.db.ExecContext(ctx, q, userID, at.UTC()); err != nil {
		return fmt.Errorf("store: upsert user %d: %w", userID, err)
	}
	return nil
}

// ListUsers returns every known user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.SelectContext(ctx, &users, `SELECT user_id, last_active FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return users, nil
}

// TouchUser moves last_active of an existing user to at.
func (s *Store) TouchUser(ctx context.Context, userID int64, at time.Time) error {
	q := s.db.Rebind(`UPDATE users SET last_active = ? WHERE user_id = ?`)
	if _, err := s.db.ExecContext(ctx, q, at.UTC(), userID); err != nil {
		return fmt.Errorf("store: touch user %d: %w", userID, err)
	}
	return nil
}
