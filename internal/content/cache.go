package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/owlet-learn/owlet/internal/ai"
)

// defaultGrade is used when a chapter's subject cannot supply a grade level.
const defaultGrade = 5

// Locker serializes content generation per chapter. The in-process
// KeyedLocker is the default; a Redis-backed implementation covers
// multi-replica deployments.
type Locker interface {
	// Lock acquires the lock for key, blocking until available or ctx is
	// done. The returned function releases the lock.
	Lock(ctx context.Context, key string) (func(), error)
}

// KeyedLocker is an in-process Locker with one lock per key. Writers to
// different keys never block each other.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewKeyedLocker creates an empty keyed locker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]chan struct{})}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cache is the generate-or-fetch layer over the content store. A cache hit
// returns the stored block unchanged; a miss generates through the
// orchestrator and persists exactly once. Generated content is permanent:
// there is no freshness check and no regeneration.
type Cache struct {
	store Store
	orch  *ai.Orchestrator
	locks Locker
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLocker replaces the default in-process locker.
func WithLocker(locker Locker) CacheOption {
	return func(c *Cache) {
		c.locks = locker
	}
}

// NewCache creates a content cache over the given store and orchestrator.
func NewCache(store Store, orch *ai.Orchestrator, opts ...CacheOption) *Cache {
	c := &Cache{
		store: store,
		orch:  orch,
		locks: NewKeyedLocker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrGenerate returns the persisted block for (chapterID, kind),
// generating and persisting it first if absent. Lesson generation produces
// the chapter's quiz in the same pass, and both blocks are persisted
// together or not at all, so a later quiz request is always a cache hit.
func (c *Cache) GetOrGenerate(ctx context.Context, chapterID string, kind BlockKind) (*ContentBlock, error) {
	switch kind {
	case KindLesson, KindQuiz:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	// Fast path: already generated.
	block, err := c.store.GetBlock(ctx, chapterID, kind)
	if err == nil {
		return block, nil
	}
	if !errors.Is(err, ErrBlockNotFound) {
		return nil, err
	}

	unlock, err := c.locks.Lock(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another request may have generated while we waited for the lock.
	block, err = c.store.GetBlock(ctx, chapterID, kind)
	if err == nil {
		return block, nil
	}
	if !errors.Is(err, ErrBlockNotFound) {
		return nil, err
	}

	return c.generate(ctx, chapterID, kind)
}

func (c *Cache) generate(ctx context.Context, chapterID string, kind BlockKind) (*ContentBlock, error) {
	chapter, err := c.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	grade := defaultGrade
	if subject, err := c.store.GetSubject(ctx, chapter.SubjectID); err == nil {
		grade = subject.GradeLevel
	}

	draft, err := c.orch.GenerateLesson(ctx, chapter.Title, chapter.Description, grade)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lessonBlock := &ContentBlock{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		Kind:      KindLesson,
		Lesson:    &LessonPayload{Body: draft.LessonText},
		Provider:  draft.Provider,
		CreatedAt: now,
	}
	quizBlock := &ContentBlock{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		Kind:      KindQuiz,
		Quiz:      &QuizPayload{Questions: quizQuestions(draft.Quiz)},
		Provider:  draft.Provider,
		CreatedAt: now,
	}

	// The commit must survive caller cancellation: once generation
	// succeeded, an aborted request does not roll back the blocks.
	persistCtx := context.WithoutCancel(ctx)
	if err := c.store.InsertBlocks(persistCtx, lessonBlock, quizBlock); err != nil {
		if errors.Is(err, ErrBlockExists) {
			// Lost a cross-replica race; the winner's blocks are canonical.
			return c.store.GetBlock(persistCtx, chapterID, kind)
		}
		return nil, err
	}

	slog.Info("content generated",
		"chapter_id", chapterID,
		"provider", draft.Provider,
		"questions", len(quizBlock.Quiz.Questions),
	)

	if kind == KindQuiz {
		return quizBlock, nil
	}
	return lessonBlock, nil
}

func quizQuestions(draft ai.QuizDraft) []Question {
	questions := make([]Question, len(draft.Questions))
	for i, q := range draft.Questions {
		questions[i] = Question{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	return questions
}
