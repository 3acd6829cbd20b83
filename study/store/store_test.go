package store

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "studybot/core/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "study.db")}
	require.NoError(t, cfg.Normalize())

	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, coredatabase.RunMigrations(cfg, Migrations()))

	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsNilDB(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilDB)
}

func TestUpsertUserIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	require.NoError(t, s.UpsertUser(ctx, 7, first))
	require.NoError(t, s.UpsertUser(ctx, 7, second))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(7), users[0].ID)
	assert.True(t, users[0].LastActive.Equal(second), "got %v", users[0].LastActive)
}

func TestTouchUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Now().Add(-96 * time.Hour).UTC().Truncate(time.Second)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.UpsertUser(ctx, 1, old))
	require.NoError(t, s.TouchUser(ctx, 1, now))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].LastActive.Equal(now), "got %v", users[0].LastActive)

	require.NoError(t, s.TouchUser(ctx, 404, now))
	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestNotesKeepInsertionOrderPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.AddNote(ctx, 1, "Фотосинтез", "content A")
	require.NoError(t, err)
	_, err = s.AddNote(ctx, 2, "Other user", "content X")
	require.NoError(t, err)
	b, err := s.AddNote(ctx, 1, "Задача с фото", "2+2")
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	notes, err := s.ListNotes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Фотосинтез", notes[0].Topic)
	assert.Equal(t, "content A", notes[0].Content)
	assert.Equal(t, "Задача с фото", notes[1].Topic)
	assert.False(t, notes[0].CreatedAt.IsZero())

	empty, err := s.ListNotes(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMigrationsEmbedBothDrivers(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		entries, err := fsReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, dir)
	}
}

func fsReadDir(dir string) ([]string, error) {
	entries, err := fs.ReadDir(Migrations(), dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
