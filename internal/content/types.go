// Package content owns the curriculum catalog and the generated content
// cache: at most one persisted block per (chapter, kind), generated once and
// kept forever.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrBlockNotFound   = errors.New("content block not found")
	ErrBlockExists     = errors.New("content block already exists")
	ErrUnsupportedKind = errors.New("unsupported content kind")
)

// Subject is a graded course of study, e.g. "Mathematics" for Grade 5.
type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GradeLevel  int       `json:"grade_level"`
	Description string    `json:"description,omitempty"`
	IconName    string    `json:"icon_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chapter is one unit within a subject, ordered by OrderIndex.
type Chapter struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OrderIndex  int    `json:"order_index"`
}

// BlockKind discriminates the payload variant of a content block.
type BlockKind string

const (
	KindLesson      BlockKind = "lesson"
	KindQuiz        BlockKind = "quiz"
	KindVideoScript BlockKind = "video_script"
	KindFlashcard   BlockKind = "flashcard"
)

// IsValid reports whether the kind is a known block kind.
func (k BlockKind) IsValid() bool {
	switch k {
	case KindLesson, KindQuiz, KindVideoScript, KindFlashcard:
		return true
	default:
		return false
	}
}

// Question is one multiple-choice quiz question. Options are keyed by
// letter ("A".."D") and CorrectAnswer holds the winning letter.
type Question struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
}

// LessonPayload is the payload of a lesson block.
type LessonPayload struct {
	Body string `json:"body"`
}

// QuizPayload is the payload of a quiz block. Question order is stored order
// and is what submissions are graded against.
type QuizPayload struct {
	Questions []Question `json:"questions"`
}

// ContentBlock is a persisted generated artifact tied to a chapter. Exactly
// one payload variant is set, selected by Kind.
type ContentBlock struct {
	ID        string         `json:"id"`
	ChapterID string         `json:"chapter_id"`
	Kind      BlockKind      `json:"kind"`
	Lesson    *LessonPayload `json:"lesson,omitempty"`
	Quiz      *QuizPayload   `json:"quiz,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// MarshalPayload encodes the active payload variant for persistence.
func (b *ContentBlock) MarshalPayload() ([]byte, error) {
	switch b.Kind {
	case KindLesson:
		if b.Lesson == nil {
			return nil, fmt.Errorf("lesson block %s has no lesson payload", b.ID)
		}
		return json.Marshal(b.Lesson)
	case KindQuiz:
		if b.Quiz == nil {
			return nil, fmt.Errorf("quiz block %s has no quiz payload", b.ID)
		}
		return json.Marshal(b.Quiz)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, b.Kind)
	}
}

// UnmarshalPayload decodes persisted payload bytes into the variant selected
// by the block's kind.
func (b *ContentBlock) UnmarshalPayload(data []byte) error {
	switch b.Kind {
	case KindLesson:
		b.Lesson = &LessonPayload{}
		return json.Unmarshal(data, b.Lesson)
	case KindQuiz:
		b.Quiz = &QuizPayload{}
		return json.Unmarshal(data, b.Quiz)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, b.Kind)
	}
}
