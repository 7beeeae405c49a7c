package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store persists subjects, chapters and content blocks.
type Store interface {
	CreateSubject(ctx context.Context, subject Subject) error
	GetSubject(ctx context.Context, id string) (*Subject, error)
	// FindSubject looks a subject up by (name, grade). ErrSubjectNotFound if absent.
	FindSubject(ctx context.Context, name string, grade int) (*Subject, error)
	// ListSubjects returns subjects ordered by grade then name. grade 0 means all grades.
	ListSubjects(ctx context.Context, grade, limit, offset int) ([]Subject, error)

	CreateChapters(ctx context.Context, chapters ...Chapter) error
	GetChapter(ctx context.Context, id string) (*Chapter, error)
	ListChapters(ctx context.Context, subjectID string) ([]Chapter, error)

	GetBlock(ctx context.Context, chapterID string, kind BlockKind) (*ContentBlock, error)
	// InsertBlocks persists all blocks or none. ErrBlockExists if any
	// (chapter, kind) pair is already occupied.
	InsertBlocks(ctx context.Context, blocks ...*ContentBlock) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	subjects map[string]Subject
	chapters map[string]Chapter
	blocks   map[string]*ContentBlock // keyed by chapterID:kind
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subjects: make(map[string]Subject),
		chapters: make(map[string]Chapter),
		blocks:   make(map[string]*ContentBlock),
	}
}

func blockKey(chapterID string, kind BlockKind) string {
	return chapterID + ":" + string(kind)
}

func (s *MemoryStore) CreateSubject(_ context.Context, subject Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if subject.ID == "" {
		return fmt.Errorf("subject id is required")
	}
	s.subjects[subject.ID] = subject
	return nil
}

func (s *MemoryStore) GetSubject(_ context.Context, id string) (*Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	return &subject, nil
}

func (s *MemoryStore) FindSubject(_ context.Context, name string, grade int) (*Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, subject := range s.subjects {
		if strings.EqualFold(subject.Name, name) && subject.GradeLevel == grade {
			found := subject
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s grade %d", ErrSubjectNotFound, name, grade)
}

func (s *MemoryStore) ListSubjects(_ context.Context, grade, limit, offset int) ([]Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		if grade > 0 && subject.GradeLevel != grade {
			continue
		}
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].GradeLevel != subjects[j].GradeLevel {
			return subjects[i].GradeLevel < subjects[j].GradeLevel
		}
		return subjects[i].Name < subjects[j].Name
	})

	if offset >= len(subjects) {
		return []Subject{}, nil
	}
	subjects = subjects[offset:]
	if limit > 0 && limit < len(subjects) {
		subjects = subjects[:limit]
	}
	return subjects, nil
}

func (s *MemoryStore) CreateChapters(_ context.Context, chapters ...Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chapter := range chapters {
		if chapter.ID == "" {
			return fmt.Errorf("chapter id is required")
		}
	}
	for _, chapter := range chapters {
		s.chapters[chapter.ID] = chapter
	}
	return nil
}

func (s *MemoryStore) GetChapter(_ context.Context, id string) (*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chapter, ok := s.chapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChapterNotFound, id)
	}
	return &chapter, nil
}

func (s *MemoryStore) ListChapters(_ context.Context, subjectID string) ([]Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chapters []Chapter
	for _, chapter := range s.chapters {
		if chapter.SubjectID == subjectID {
			chapters = append(chapters, chapter)
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].OrderIndex < chapters[j].OrderIndex
	})
	return chapters, nil
}

func (s *MemoryStore) GetBlock(_ context.Context, chapterID string, kind BlockKind) (*ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.blocks[blockKey(chapterID, kind)]
	if !ok {
		return nil, fmt.Errorf("%w: chapter %s kind %s", ErrBlockNotFound, chapterID, kind)
	}
	copied := *block
	return &copied, nil
}

func (s *MemoryStore) InsertBlocks(_ context.Context, blocks ...*ContentBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check every key before writing any.
	for _, block := range blocks {
		if _, exists := s.blocks[blockKey(block.ChapterID, block.Kind)]; exists {
			return fmt.Errorf("%w: chapter %s kind %s", ErrBlockExists, block.ChapterID, block.Kind)
		}
	}
	for _, block := range blocks {
		copied := *block
		s.blocks[blockKey(block.ChapterID, block.Kind)] = &copied
	}
	return nil
}
