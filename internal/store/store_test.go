package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"vibeauth/internal/config"
	"vibeauth/internal/models"
)

func newUser(email string) models.User {
	return models.User{
		ID:               uuid.NewString(),
		Email:            email,
		DisplayName:      "Alice",
		CredentialDigest: "digest",
		TOTPSecret:       "JBSWY3DPEHPK3PXP",
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

// runContract exercises the UserStore contract against any backend.
func runContract(t *testing.T, s UserStore) {
	ctx := context.Background()

	t.Run("find missing", func(t *testing.T) {
		_, err := s.FindByEmail(ctx, "nobody@test.com")
		require.ErrorIs(t, err, ErrNotFound)
	})

	u := newUser("a@test.com")

	t.Run("insert and find", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, u))

		got, err := s.FindByEmail(ctx, "a@test.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, u.DisplayName, got.DisplayName)
		require.Equal(t, u.CredentialDigest, got.CredentialDigest)
		require.Equal(t, u.TOTPSecret, got.TOTPSecret)
		require.False(t, got.IsLoggedIn)
		require.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("email lookup is case sensitive", func(t *testing.T) {
		_, err := s.FindByEmail(ctx, "A@test.com")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := s.Insert(ctx, newUser("a@test.com"))
		require.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("set logged in", func(t *testing.T) {
		require.NoError(t, s.SetLoggedIn(ctx, u.ID, true))
		got, err := s.FindByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.True(t, got.IsLoggedIn)

		require.NoError(t, s.SetLoggedIn(ctx, u.ID, false))
		got, err = s.FindByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.False(t, got.IsLoggedIn)
	})

	t.Run("set logged in unknown id", func(t *testing.T) {
		require.ErrorIs(t, s.SetLoggedIn(ctx, "missing", true), ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runContract(t, NewMemoryStore())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Insert(ctx, newUser("a@test.com")), context.Canceled)
	_, err := s.FindByEmail(context.Background(), "a@test.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore(t *testing.T) {
	runContract(t, NewFileStore(filepath.Join(t.TempDir(), "users.json")))
}

func TestFileStore_PersistsJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()

	s := NewFileStore(path)
	u := newUser("a@test.com")
	require.NoError(t, s.Insert(ctx, u))
	require.NoError(t, s.Insert(ctx, newUser("b@test.com")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte('['), data[0])
	require.Contains(t, string(data), `"email":"a@test.com"`)
	require.Contains(t, string(data), `"isLoggedIn":false`)

	reopened := NewFileStore(path)
	got, err := reopened.FindByEmail(ctx, "a@test.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).FindByEmail(context.Background(), "a@test.com")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CancelledBeforeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewFileStore(path).Insert(ctx, newUser("a@test.com")), context.Canceled)
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	runContract(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "vibeauth_test_" + uuid.NewString()[:8]
	s, err := NewMongoStore(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close(context.Background())
	})

	runContract(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, b)

	b, err = Open(ctx, config.StoreConfig{Backend: config.BackendFile, FilePath: filepath.Join(t.TempDir(), "u.json")})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, b)

	b, err = Open(ctx, config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "u.db")})
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, b)
	require.NoError(t, b.Close(ctx))

	_, err = Open(ctx, config.StoreConfig{Backend: config.BackendFile})
	require.Error(t, err)

	_, err = Open(ctx, config.StoreConfig{Backend: "redis"})
	require.Error(t, err)
}
