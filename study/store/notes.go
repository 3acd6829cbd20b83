package store

import (
	"context"
	"fmt"
)

// AddNote saves a note for userID and returns it with its id.
func (s *Store) AddNote(ctx context.Context, userID int64, topic, content string) (Note, error) {
	n := Note{
		UserID:    userID,
		Topic:     topic,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	q := s.db.Rebind(`
		INSERT INTO summaries (user_id, topic, content, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, q, n.UserID, n.Topic, n.Content, n.CreatedAt).Scan(&n.ID); err != nil {
		return Note{}, fmt.Errorf("store: add note: %w", err)
	}
	return n, nil
}

// ListNotes returns the notes of userID in the order they were saved.
func (s *Store) ListNotes(ctx context.Context, userID int64) ([]Note, error) {
	var notes []Note
	q := s.db.Rebind(`
		SELECT id, user_id, topic, content, created_at
		FROM summaries
		WHERE user_id = ?
		ORDER BY id`)
	if err := s.db.SelectContext(ctx, &notes, q, userID); err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return notes, nil
}
