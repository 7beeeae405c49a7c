package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store persists accounts.
type Store interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	// GetAccountByEmail matches case-insensitively. ErrAccountNotFound if absent.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byEmail  map[string]string
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]Account),
		byEmail:  make(map[string]string),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("%w: %s", ErrEmailTaken, account.Email)
	}
	s.accounts[account.ID] = account
	s.byEmail[email] = account.ID
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return &account, nil
}

func (s *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, email)
	}
	account := s.accounts[id]
	return &account, nil
}
