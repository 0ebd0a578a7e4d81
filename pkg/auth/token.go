// Package auth stores the bearer token used to talk to the workflow API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoToken indicates no token has been stored yet.
var ErrNoToken = errors.New("no token stored")

// TokenStore keeps the session token between invocations.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type tokenFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on first SetToken.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultTokenPath is $XDG_CONFIG_HOME/flowdeck/token.json, or the equivalent
// under the user's config dir.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, "flowdeck", "token.json")
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}

	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("failed to decode token file %s: %w", s.path, err)
	}

	if tf.Token == "" {
		return "", ErrNoToken
	}

	return tf.Token, nil
}

func (s *FileStore) SetToken(_ context.Context, token string) error {
	err := os.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tokenFile{Token: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	err = os.WriteFile(s.path, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write token file %s: %w", s.path, err)
	}

	// WriteFile keeps the mode of an existing file.
	err = os.Chmod(s.path, 0o600)
	if err != nil {
		return fmt.Errorf("failed to restrict token file %s: %w", s.path, err)
	}

	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file %s: %w", s.path, err)
	}

	return nil
}

// MemoryStore keeps the token in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == "" {
		return "", ErrNoToken
	}

	return m.token, nil
}

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token

	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	return m.SetToken(ctx, "")
}
