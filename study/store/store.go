// Package store persists users and their saved notes.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationFiles embed.FS

// Migrations returns the schema migrations, one directory per driver.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrNilDB is returned by New when no database handle is given.
var ErrNilDB = errors.New("store: nil database")

// User is a person who has started the bot.
type User struct {
	ID         int64     `db:"user_id"`
	LastActive time.Time `db:"last_active"`
}

// Note is a saved summary or recognized photo text.
type Note struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Topic     string    `db:"topic"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Store wraps the pooled database handle.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a Store over db.
func New(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}
