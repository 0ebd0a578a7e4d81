package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisSessions(t *testing.T) (*RedisSessions, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRedisSessions(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestMemorySessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemorySessions(func() time.Time { return now })

	require.NoError(t, store.Put(t.Context(), "tok", "user-1", time.Minute))

	userID, err := store.Get(t.Context(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	now = now.Add(time.Minute)

	_, err = store.Get(t.Context(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedisSessions_PutGet(t *testing.T) {
	t.Parallel()

	store, mr := setupRedisSessions(t)

	require.NoError(t, store.Put(t.Context(), "tok", "user-1", time.Hour))

	userID, err := store.Get(t.Context(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	assert.True(t, mr.Exists(defaultSessionPrefix+"tok"))
	assert.Equal(t, time.Hour, mr.TTL(defaultSessionPrefix+"tok"))

	_, err = store.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedisSessions_Expiry(t *testing.T) {
	t.Parallel()

	store, mr := setupRedisSessions(t)

	require.NoError(t, store.Put(t.Context(), "tok", "user-1", time.Minute))

	mr.FastForward(time.Minute)

	_, err := store.Get(t.Context(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedisSessions_ConnectionError(t *testing.T) {
	t.Parallel()

	store, mr := setupRedisSessions(t)
	mr.Close()

	_, err := store.Get(t.Context(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "redis get failed")
}

func TestNewRedisSessionsFromURL(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	store, err := NewRedisSessionsFromURL(t.Context(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewRedisSessionsFromURL(t.Context(), "not a url")
	assert.ErrorContains(t, err, "invalid redis URL")
}

func TestAuth_RedisSessionsShareLogins(t *testing.T) {
	t.Parallel()

	store, _ := setupRedisSessions(t)

	first := newAuth(WithSessionStore(store))
	require.NoError(t, first.Register(t.Context(), models.Credentials{Email: "a@b.com", Password: "hunter22"}))

	token, err := first.Login(t.Context(), models.Credentials{Email: "a@b.com", Password: "hunter22"})
	require.NoError(t, err)

	// A second instance without the user still resolves the shared token.
	second := newAuth(WithSessionStore(store))

	userID, err := second.Authenticate(t.Context(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
}
