package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/session-auth/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), storage.MemoryPath, Schema...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bob, err := store.Insert(ctx, "bob", "digest-bob")
	require.NoError(t, err)
	require.Equal(t, int64(1), bob.ID)

	sue, err := store.Insert(ctx, "sue", "digest-sue")
	require.NoError(t, err)
	require.Equal(t, int64(2), sue.ID)

	found, err := store.FindByUsername(ctx, "sue")
	require.NoError(t, err)
	require.Equal(t, &User{ID: 2, Username: "sue", Digest: "digest-sue"}, found)
}

func TestSQLiteStoreFindMissing(t *testing.T) {
	found, err := newTestStore(t).FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestSQLiteStoreUniqueUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Insert(ctx, "sue", "first")
	require.NoError(t, err)

	_, err = store.Insert(ctx, "sue", "second")
	require.ErrorIs(t, err, ErrUsernameTaken)

	found, err := store.FindByUsername(ctx, "sue")
	require.NoError(t, err)
	require.Equal(t, "first", found.Digest)
}

func TestSQLiteStoreUsernameIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Insert(ctx, "sue", "lower")
	require.NoError(t, err)
	_, err = store.Insert(ctx, "Sue", "upper")
	require.NoError(t, err)

	found, err := store.FindByUsername(ctx, "SUE")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestSQLiteStoreList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	for _, name := range []string{"bob", "sue"} {
		_, err := store.Insert(ctx, name, "d-"+name)
		require.NoError(t, err)
	}

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "bob", list[0].Username)
	require.Equal(t, "sue", list[1].Username)
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user, created, err := EnsureUser(ctx, store, "bob", "digest")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(1), user.ID)

	user, created, err = EnsureUser(ctx, store, "bob", "other")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "digest", user.Digest)

	_, _, err = EnsureUser(ctx, store, "", "digest")
	require.Error(t, err)
}

type raceStore struct {
	Store
	lookups int
}

func (s *raceStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.lookups++
	if s.lookups == 1 {
		return nil, nil
	}
	return &User{ID: 7, Username: username, Digest: "winner"}, nil
}

func (s *raceStore) Insert(ctx context.Context, username, digest string) (*User, error) {
	return nil, ErrUsernameTaken
}

func TestEnsureUserLostRace(t *testing.T) {
	user, created, err := EnsureUser(context.Background(), &raceStore{}, "bob", "digest")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, int64(7), user.ID)
}
