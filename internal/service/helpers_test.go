package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookmarks-api/internal/auth"
	"bookmarks-api/internal/repository/sqlite"
)

type testEnv struct {
	users     *sqlite.UserRepository
	bookmarks *sqlite.BookmarkRepository
	tokens    *auth.TokenManager
	auth      AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "bookmarks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = sqlite.Migrate(context.Background(), db)
	require.NoError(t, err)

	users := sqlite.NewUserRepository(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return &testEnv{
		users:     users,
		bookmarks: sqlite.NewBookmarkRepository(db),
		tokens:    tokens,
		auth:      NewAuthService(users, tokens),
	}
}

// signup registers a user and returns its id.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	token, err := e.auth.Signup(context.Background(), email, "123")
	require.NoError(t, err)
	id, err := e.tokens.Verify(token)
	require.NoError(t, err)
	return id.UserID
}

func strPtr(s string) *string {
	return &s
}
