package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists learner profiles and their balances.
type Store interface {
	Create(ctx context.Context, p Profile) error
	Get(ctx context.Context, id string) (*Profile, error)
	ListByAccount(ctx context.Context, accountID string) ([]Profile, error)
	Update(ctx context.Context, p Profile) error

	// AddEarnings credits XP and coins atomically and returns the updated
	// profile.
	AddEarnings(ctx context.Context, id string, e Earnings) (*Profile, error)
	// SpendCoins debits coins atomically. ErrInsufficientFunds when the
	// balance cannot cover the amount; the balance is left untouched.
	SpendCoins(ctx context.Context, id string, amount int) (*Profile, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) Create(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &p, nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, accountID string) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var profiles []Profile
	for _, p := range s.profiles {
		if p.AccountID == accountID {
			profiles = append(profiles, p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (s *MemoryStore) Update(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *MemoryStore) AddEarnings(_ context.Context, id string, e Earnings) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.XP += e.XP
	p.Coins += e.Coins
	s.profiles[id] = p
	return &p, nil
}

func (s *MemoryStore) SpendCoins(_ context.Context, id string, amount int) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.Coins < amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, p.Coins, amount)
	}
	p.Coins -= amount
	s.profiles[id] = p
	return &p, nil
}
