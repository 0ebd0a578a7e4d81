package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

type user struct {
	id           string
	email        string
	passwordHash []byte
}

// Auth keeps registered users in memory and issued tokens in a SessionStore.
type Auth struct {
	mu       sync.RWMutex
	users    map[string]*user
	sessions SessionStore

	validate *validator.Validate
	cost     int
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type AuthOption func(*Auth)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(a *Auth) { a.cost = cost }
}

func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(a *Auth) { a.ttl = ttl }
}

// WithSessionStore replaces the in-memory token store.
func WithSessionStore(store SessionStore) AuthOption {
	return func(a *Auth) { a.sessions = store }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

func NewAuth(logger *slog.Logger, opts ...AuthOption) *Auth {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Auth{
		users:    make(map[string]*user),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cost:     bcrypt.DefaultCost,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		logger:   logger.With("module", "auth_service"),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessions == nil {
		a.sessions = NewMemorySessions(a.now)
	}

	return a
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails are unique, compared case-insensitively.
func (a *Auth) Register(ctx context.Context, creds models.Credentials) error {
	creds.Email = normalizeEmail(creds.Email)

	if err := a.validate.Struct(creds); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return NewValidationError("Register", "validation_error",
				fmt.Sprintf("%s failed %q check", strings.ToLower(fieldErrs[0].Field()), fieldErrs[0].Tag()))
		}

		return NewValidationError("Register", "validation_error", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), a.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.users[creds.Email]; ok {
		return &ServiceError{Op: "Register", Code: "email_taken", Err: ErrEmailTaken}
	}

	a.users[creds.Email] = &user{id: uuid.NewString(), email: creds.Email, passwordHash: hash}

	a.logger.InfoContext(ctx, "User registered", "email", creds.Email)

	return nil
}

// Login checks credentials and issues an opaque bearer token.
func (a *Auth) Login(ctx context.Context, creds models.Credentials) (string, error) {
	email := normalizeEmail(creds.Email)

	a.mu.RLock()
	u, ok := a.users[email]
	a.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)) != nil {
		return "", &ServiceError{Op: "Login", Code: "invalid_credentials", Err: ErrInvalidCredentials}
	}

	token := uuid.NewString()

	if err := a.sessions.Put(ctx, token, u.id, a.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	a.logger.InfoContext(ctx, "User logged in", "email", email)

	return token, nil
}

// Authenticate resolves a token to its user ID.
func (a *Auth) Authenticate(ctx context.Context, token string) (string, error) {
	return a.sessions.Get(ctx, token)
}
