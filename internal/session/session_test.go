package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarian/internal/models"
	"librarian/internal/storage/stubs"
)

func TestSession_LoginLogout(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()

	s, err := Load(ctx, db, "42", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, s.SignedIn())

	require.NoError(t, s.Login(ctx, models.LoginResult{Token: "abc", UserID: 7}))
	assert.Equal(t, "abc", s.Token())
	assert.Equal(t, int64(7), s.UserID())

	stored, err := db.Get(ctx, "42", KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.SignedIn())
	assert.Equal(t, int64(0), s.UserID())
}

func TestSession_RejectsEmptyToken(t *testing.T) {
	s, err := Load(context.Background(), stubs.NewMockDB(), "42", nil)
	require.NoError(t, err)
	assert.Error(t, s.Login(context.Background(), models.LoginResult{}))
}

func TestSession_PreferencesSurviveReload(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()

	s, err := Load(ctx, db, "42", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.SetDarkMode(ctx, true))
	require.NoError(t, s.SetLanguage(ctx, "cs"))
	require.NoError(t, s.History().Record(ctx, "tolkien", 2))

	reloaded, err := Load(ctx, db, "42", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Preferences{DarkMode: true, Language: "cs"}, reloaded.Preferences())

	entries := reloaded.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "tolkien", entries[0].Query)
	assert.Equal(t, 2, entries[0].HitCount)

	require.NoError(t, reloaded.History().Clear(ctx))
	_, err = db.Get(ctx, "42", KeyRecentSearches)
	assert.Error(t, err)
}

func TestSession_FailedWriteKeepsValue(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()

	s, err := Load(ctx, db, "42", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.SetLanguage(ctx, "en"))

	db.FailWrites = assert.AnError
	assert.Error(t, s.SetLanguage(ctx, "cs"))
	assert.Equal(t, "en", s.Language())
}

func TestRegistry_ReusesSessions(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(stubs.NewMockDB(), time.Minute, zap.NewNop())

	a, err := r.Get(ctx, "42")
	require.NoError(t, err)
	b, err := r.Get(ctx, "42")
	require.NoError(t, err)
	c, err := r.Get(ctx, "7")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}
