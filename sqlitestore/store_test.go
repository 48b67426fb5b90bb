package sqlitestore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tj-smith47/cosynight-go"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tokens_test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testToken(access string) *cosynight.Token {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &cosynight.Token{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: "refresh-" + access,
		Issued:       issued,
		Expires:      issued.Add(24 * time.Hour),
		ExpiresIn:    86400,
		UserID:       "user-1",
		UserEmail:    "sleepy@example.com",
	}
}

func TestLoadMissing(t *testing.T) {
	s := testStore(t)

	tok, err := s.LoadToken(context.Background())
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, cosynight.ErrNoToken)
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := testToken("a1")
	require.NoError(t, s.SaveToken(ctx, want))

	got, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, testToken("v1")))
	require.NoError(t, s.SaveToken(ctx, testToken("v2")))

	got, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.AccessToken)
}

func TestSaveNil(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.SaveToken(context.Background(), nil))
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToken(ctx, testToken("a1")))
	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx), "deleting twice is not an error")

	_, err := s.LoadToken(ctx)
	assert.ErrorIs(t, err, cosynight.ErrNoToken)
}

func TestKeysAreIsolated(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	alice, err := New(db, "alice")
	require.NoError(t, err)
	bob, err := New(db, "bob")
	require.NoError(t, err)

	require.NoError(t, alice.SaveToken(ctx, testToken("alice-token")))

	_, err = bob.LoadToken(ctx)
	assert.ErrorIs(t, err, cosynight.ErrNoToken)

	got, err := alice.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice-token", got.AccessToken)

	require.NoError(t, alice.Close(), "Close on a borrowed handle is a no-op")
	require.NoError(t, db.Ping())
}

func TestNewEmptyKey(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = New(db, "")
	assert.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s1, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.SaveToken(ctx, testToken("persisted")))
	require.NoError(t, s1.Close())

	s2, err := Open(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, testToken("persisted"), got)
}
