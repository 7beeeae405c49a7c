// Package progress tracks what each learner has seen and finished, grades
// quiz submissions and converts results into XP and coin earnings.
package progress

import (
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("progress record not found")

// Status is the lifecycle of one (profile, chapter) pair. Transitions
// only move forward: a completed record never drops back to in_progress.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// rank orders statuses for the forward-only rule.
func (s Status) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// Advances reports whether moving to next is a forward transition.
func (s Status) Advances(next Status) bool {
	return next.rank() > s.rank()
}

// Record is one learner's state against one chapter, exactly one per
// (profile, chapter) pair. Score, TotalQuestions and XPEarned hold the
// latest quiz submission; a resubmission overwrites them.
type Record struct {
	ID             string     `json:"id"`
	ProfileID      string     `json:"profile_id"`
	ChapterID      string     `json:"chapter_id"`
	Status         Status     `json:"status"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	XPEarned       int        `json:"xp_earned"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
