package gamification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/owlet-learn/owlet/internal/profile"
)

// Store persists the badge catalog, awards, shop items and ownership.
type Store interface {
	PutBadges(ctx context.Context, badges ...Badge) error
	ListBadges(ctx context.Context) ([]Badge, error)
	ListAwards(ctx context.Context, profileID string) ([]Award, error)
	// GrantAward records an award; granting an already-held badge is a no-op.
	GrantAward(ctx context.Context, award Award) error

	PutItems(ctx context.Context, items ...Item) error
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListOwnership(ctx context.Context, profileID string) ([]Ownership, error)
	Owns(ctx context.Context, profileID, itemID string) (bool, error)
	// Purchase debits the item's price and records ownership atomically.
	// ErrAlreadyOwned or profile.ErrInsufficientFunds leave both sides
	// untouched.
	Purchase(ctx context.Context, profileID string, item Item) (*profile.Profile, error)
}

// MemoryStore is an in-memory Store implementation backed by a profile
// store for the debit side of Purchase.
type MemoryStore struct {
	mu        sync.RWMutex
	badges    []Badge
	awards    map[string][]Award // keyed by profile ID
	items     map[string]Item
	itemOrder []string
	owned     map[string]time.Time // keyed by profileID:itemID
	profiles  profile.Store
}

// NewMemoryStore creates an in-memory gamification store debiting coins
// through the given profile store.
func NewMemoryStore(profiles profile.Store) *MemoryStore {
	return &MemoryStore{
		awards:   make(map[string][]Award),
		items:    make(map[string]Item),
		owned:    make(map[string]time.Time),
		profiles: profiles,
	}
}

func ownershipKey(profileID, itemID string) string {
	return profileID + ":" + itemID
}

func (s *MemoryStore) PutBadges(_ context.Context, badges ...Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range badges {
		if b.ID == "" {
			return fmt.Errorf("badge id is required")
		}
	}
	s.badges = append(s.badges, badges...)
	return nil
}

func (s *MemoryStore) ListBadges(_ context.Context) ([]Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Badge, len(s.badges))
	copy(out, s.badges)
	return out, nil
}

func (s *MemoryStore) ListAwards(_ context.Context, profileID string) ([]Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Award, len(s.awards[profileID]))
	copy(out, s.awards[profileID])
	return out, nil
}

func (s *MemoryStore) GrantAward(_ context.Context, award Award) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.awards[award.ProfileID] {
		if a.BadgeID == award.BadgeID {
			return nil
		}
	}
	s.awards[award.ProfileID] = append(s.awards[award.ProfileID], award)
	return nil
}

func (s *MemoryStore) PutItems(_ context.Context, items ...Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("item id is required")
		}
		if _, exists := s.items[item.ID]; !exists {
			s.itemOrder = append(s.itemOrder, item.ID)
		}
		s.items[item.ID] = item
	}
	return nil
}

func (s *MemoryStore) ListItems(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		items = append(items, s.items[id])
	}
	return items, nil
}

func (s *MemoryStore) GetItem(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return &item, nil
}

func (s *MemoryStore) ListOwnership(_ context.Context, profileID string) ([]Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Ownership
	for _, id := range s.itemOrder {
		if at, ok := s.owned[ownershipKey(profileID, id)]; ok {
			out = append(out, Ownership{ProfileID: profileID, ItemID: id, PurchasedAt: at})
		}
	}
	return out, nil
}

func (s *MemoryStore) Owns(_ context.Context, profileID, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.owned[ownershipKey(profileID, itemID)]
	return ok, nil
}

func (s *MemoryStore) Purchase(ctx context.Context, profileID string, item Item) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownershipKey(profileID, item.ID)
	if _, ok := s.owned[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOwned, item.ID)
	}

	p, err := s.profiles.SpendCoins(ctx, profileID, item.Price)
	if err != nil {
		return nil, err
	}
	s.owned[key] = time.Now().UTC()
	return p, nil
}
