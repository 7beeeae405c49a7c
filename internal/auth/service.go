package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a login stays valid without renewal.
const DefaultSessionTTL = 24 * time.Hour

// Sessions stores login sessions by token. The in-memory implementation is
// the default; a Redis-backed one covers multi-replica deployments.
type Sessions interface {
	Save(ctx context.Context, token string, identity Identity, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (*Identity, error)
	Delete(ctx context.Context, token string) error
}

// MemorySessions is an in-memory Sessions implementation.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	identity Identity
	expires  time.Time
}

// NewMemorySessions creates an empty in-memory session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]memorySession)}
}

func (m *MemorySessions) Save(_ context.Context, token string, identity Identity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memorySession{identity: identity, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemorySessions) Lookup(_ context.Context, token string) (*Identity, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok || time.Now().After(session.expires) {
		return nil, ErrSessionExpired
	}
	identity := session.identity
	return &identity, nil
}

func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Service ties accounts, password hashing and sessions together.
type Service struct {
	store      Store
	sessions   Sessions
	sessionTTL time.Duration
}

// NewService creates an auth service.
func NewService(store Store, sessions Sessions) *Service {
	return &Service{
		store:      store,
		sessions:   sessions,
		sessionTTL: DefaultSessionTTL,
	}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	slog.Info("account registered", "account_id", account.ID)
	return &account, nil
}

// Login verifies the credentials and issues a session token. Wrong email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Identity, error) {
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !CheckPassword(account.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", nil, err
	}
	identity := Identity{AccountID: account.ID, Privileged: account.Privileged}
	if err := s.sessions.Save(ctx, token, identity, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	return token, &identity, nil
}

// Authenticate resolves a session token to its identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}
	return s.sessions.Lookup(ctx, token)
}

// Logout invalidates a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
