package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tracker applies the forward-only status rules on top of the store.
type Tracker struct {
	store Store
}

// NewTracker creates a progress tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// EnsureLessonViewed records that the learner opened the chapter's lesson.
// A fresh record starts at in_progress; an existing record is never moved
// backwards.
func (t *Tracker) EnsureLessonViewed(ctx context.Context, profileID, chapterID string) (*Record, error) {
	return t.ensure(ctx, profileID, chapterID, StatusInProgress)
}

// EnsureQuizViewed records that the learner opened the chapter's quiz. A
// fresh record starts at not_started; viewing the quiz never advances an
// existing record, only a graded submission does.
func (t *Tracker) EnsureQuizViewed(ctx context.Context, profileID, chapterID string) (*Record, error) {
	return t.ensure(ctx, profileID, chapterID, StatusNotStarted)
}

func (t *Tracker) ensure(ctx context.Context, profileID, chapterID string, status Status) (*Record, error) {
	rec, err := t.store.Get(ctx, profileID, chapterID)
	if err == nil {
		if !rec.Status.Advances(status) {
			return rec, nil
		}
		rec.Status = status
		if err := t.store.Upsert(ctx, *rec); err != nil {
			return nil, fmt.Errorf("advance progress: %w", err)
		}
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	fresh := Record{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		ChapterID: chapterID,
		Status:    status,
		StartedAt: time.Now().UTC(),
	}
	if err := t.store.Upsert(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create progress record: %w", err)
	}
	return &fresh, nil
}
