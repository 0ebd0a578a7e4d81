package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps issued bearer tokens. Get returns ErrInvalidToken for
// unknown or expired tokens.
type SessionStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
}

type session struct {
	userID    string
	expiresAt time.Time
}

// MemorySessions is the default SessionStore; tokens die with the process.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

func NewMemorySessions(now func() time.Time) *MemorySessions {
	if now == nil {
		now = time.Now
	}

	return &MemorySessions{sessions: make(map[string]session), now: now}
}

func (m *MemorySessions) Put(_ context.Context, token, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[token] = session{userID: userID, expiresAt: m.now().Add(ttl)}

	return nil
}

func (m *MemorySessions) Get(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return "", ErrInvalidToken
	}

	if !m.now().Before(s.expiresAt) {
		delete(m.sessions, token)

		return "", ErrInvalidToken
	}

	return s.userID, nil
}

const defaultSessionPrefix = "flowdeck:session:"

// RedisSessions stores tokens as Redis keys expiring with the token TTL, so
// several API instances can share logins.
type RedisSessions struct {
	client *redis.Client
	prefix string
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, prefix: defaultSessionPrefix}
}

// NewRedisSessionsFromURL connects to a redis:// URL and pings it.
func NewRedisSessionsFromURL(ctx context.Context, redisURL string) (*RedisSessions, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisSessions(client), nil
}

func (r *RedisSessions) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (r *RedisSessions) Get(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, r.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidToken
		}

		return "", fmt.Errorf("redis get failed: %w", err)
	}

	return userID, nil
}

func (r *RedisSessions) Close() error {
	return r.client.Close()
}
