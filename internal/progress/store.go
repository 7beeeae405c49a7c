package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/owlet-learn/owlet/internal/profile"
)

// Store persists progress records. ApplyQuizResult couples the record update
// with the profile credit so a crash cannot award coins without recording
// the completion, or vice versa.
type Store interface {
	Get(ctx context.Context, profileID, chapterID string) (*Record, error)
	Upsert(ctx context.Context, rec Record) error
	ListByProfile(ctx context.Context, profileID string) ([]Record, error)
	// CountCompleted counts the profile's completed chapter records.
	CountCompleted(ctx context.Context, profileID string) (int, error)
	// ApplyQuizResult marks the chapter record completed, overwriting score,
	// total and xp with the latest submission and restamping the completion
	// time, and credits the earnings, all in one step.
	ApplyQuizResult(ctx context.Context, profileID, chapterID string, result Result) (*Record, *profile.Profile, error)
}

func recordKey(profileID, chapterID string) string {
	return profileID + ":" + chapterID
}

// MemoryStore is an in-memory Store implementation backed by a profile
// store for the earnings side of ApplyQuizResult.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]Record
	profiles profile.Store
}

// NewMemoryStore creates an in-memory progress store crediting earnings
// through the given profile store.
func NewMemoryStore(profiles profile.Store) *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]Record),
		profiles: profiles,
	}
}

func (s *MemoryStore) Get(_ context.Context, profileID, chapterID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey(profileID, chapterID)]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s chapter %s", ErrRecordNotFound, profileID, chapterID)
	}
	return &rec, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ProfileID == "" || rec.ChapterID == "" {
		return fmt.Errorf("profile and chapter ids are required")
	}
	s.records[recordKey(rec.ProfileID, rec.ChapterID)] = rec
	return nil
}

func (s *MemoryStore) ListByProfile(_ context.Context, profileID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	for _, rec := range s.records {
		if rec.ProfileID == profileID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
	return records, nil
}

func (s *MemoryStore) CountCompleted(_ context.Context, profileID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.ProfileID == profileID && rec.Status == StatusCompleted {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ApplyQuizResult(ctx context.Context, profileID, chapterID string, result Result) (*Record, *profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(profileID, chapterID)
	now := time.Now().UTC()
	rec, ok := s.records[key]
	if !ok {
		rec = Record{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			ChapterID: chapterID,
			StartedAt: now,
		}
	}
	rec.Status = StatusCompleted
	rec.Score = result.Correct
	rec.TotalQuestions = result.Total
	rec.XPEarned = result.XPEarned
	rec.CompletedAt = &now

	// Credit first: a failed credit must leave the record unpublished.
	p, err := s.profiles.AddEarnings(ctx, profileID, profile.Earnings{
		XP:    result.XPEarned,
		Coins: result.CoinsEarned,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("credit earnings: %w", err)
	}
	s.records[key] = rec
	return &rec, p, nil
}
