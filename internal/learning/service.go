// Package learning is the application layer: it ties content generation,
// progress tracking, rewards and profiles into the operations the HTTP
// handlers expose.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/owlet-learn/owlet/internal/ai"
	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/profile"
	"github.com/owlet-learn/owlet/internal/progress"
)

var ErrValidation = errors.New("invalid request")

const (
	defaultPageSize = 20
	maxPageSize     = 100

	minGrade = 1
	maxGrade = 12
)

// Config holds dependencies for the learning service.
type Config struct {
	Contents     content.Store
	Cache        *content.Cache
	Profiles     profile.Store
	Progress     progress.Store
	Rewards      gamification.Store
	Orchestrator *ai.Orchestrator
}

// Service is the core application service.
type Service struct {
	contents  content.Store
	cache     *content.Cache
	profiles  profile.Store
	progress  progress.Store
	rewards   gamification.Store
	orch      *ai.Orchestrator
	tracker   *progress.Tracker
	evaluator *gamification.Evaluator
	ledger    *gamification.Ledger
}

// NewService creates the learning service.
func NewService(cfg Config) *Service {
	return &Service{
		contents:  cfg.Contents,
		cache:     cfg.Cache,
		profiles:  cfg.Profiles,
		progress:  cfg.Progress,
		rewards:   cfg.Rewards,
		orch:      cfg.Orchestrator,
		tracker:   progress.NewTracker(cfg.Progress),
		evaluator: gamification.NewEvaluator(cfg.Rewards),
		ledger:    gamification.NewLedger(cfg.Rewards),
	}
}

// LessonView is a lesson delivered to a learner, with their progress state.
type LessonView struct {
	ChapterID string           `json:"chapter_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Provider  string           `json:"provider,omitempty"`
	Status    progress.Status  `json:"status"`
	Record    *progress.Record `json:"-"`
}

// GetLesson returns the chapter's lesson, generating it on first request,
// and marks the chapter in progress for the learner.
func (s *Service) GetLesson(ctx context.Context, profileID, chapterID string) (*LessonView, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	chapter, err := s.contents.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	block, err := s.cache.GetOrGenerate(ctx, chapterID, content.KindLesson)
	if err != nil {
		return nil, err
	}

	rec, err := s.tracker.EnsureLessonViewed(ctx, profileID, chapterID)
	if err != nil {
		return nil, err
	}

	return &LessonView{
		ChapterID: chapterID,
		Title:     chapter.Title,
		Body:      block.Lesson.Body,
		Provider:  block.Provider,
		Status:    rec.Status,
		Record:    rec,
	}, nil
}

// QuizQuestionView is one question as shown to the learner: the correct
// answer and explanation stay server-side until grading.
type QuizQuestionView struct {
	Index    int               `json:"index"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

// QuizView is a quiz delivered to a learner.
type QuizView struct {
	ChapterID string             `json:"chapter_id"`
	Questions []QuizQuestionView `json:"questions"`
	Status    progress.Status    `json:"status"`
}

// GetQuiz returns the chapter's quiz. It never generates: the quiz
// materializes alongside the lesson, so requesting it before the lesson
// reports ErrBlockNotFound. Viewing lazily creates a not_started record.
func (s *Service) GetQuiz(ctx context.Context, profileID, chapterID string) (*QuizView, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}

	block, err := s.contents.GetBlock(ctx, chapterID, content.KindQuiz)
	if err != nil {
		return nil, err
	}

	rec, err := s.tracker.EnsureQuizViewed(ctx, profileID, chapterID)
	if err != nil {
		return nil, err
	}

	questions := make([]QuizQuestionView, len(block.Quiz.Questions))
	for i, q := range block.Quiz.Questions {
		questions[i] = QuizQuestionView{Index: i, Question: q.Question, Options: q.Options}
	}
	return &QuizView{ChapterID: chapterID, Questions: questions, Status: rec.Status}, nil
}

// SubmissionResult is the graded outcome of a quiz submission, including
// the updated balances and any badges unlocked by the new totals.
type SubmissionResult struct {
	Result    progress.Result      `json:"result"`
	Record    progress.Record      `json:"record"`
	Profile   profile.Profile      `json:"profile"`
	NewBadges []gamification.Badge `json:"new_badges,omitempty"`
}

// SubmitQuiz grades a submission against the stored quiz, applies the
// earnings and completion atomically, then checks badges against the new
// totals.
func (s *Service) SubmitQuiz(ctx context.Context, profileID, chapterID string, answers map[int]string) (*SubmissionResult, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	block, err := s.contents.GetBlock(ctx, chapterID, content.KindQuiz)
	if err != nil {
		return nil, err
	}

	result := progress.Grade(block.Quiz, answers)
	rec, p, err := s.progress.ApplyQuizResult(ctx, profileID, chapterID, result)
	if err != nil {
		return nil, err
	}

	slog.Info("quiz submitted",
		"profile_id", profileID,
		"chapter_id", chapterID,
		"correct", result.Correct,
		"total", result.Total,
		"xp_earned", result.XPEarned,
	)

	badges, err := s.CheckBadges(ctx, profileID)
	if err != nil {
		// The submission already landed; surface the result anyway.
		slog.Warn("badge evaluation failed", "profile_id", profileID, "error", err)
		badges = nil
	}

	return &SubmissionResult{
		Result:    result,
		Record:    *rec,
		Profile:   *p,
		NewBadges: badges,
	}, nil
}

// CheckBadges evaluates the badge catalog against the profile's current
// stats and returns whatever is newly granted.
func (s *Service) CheckBadges(ctx context.Context, profileID string) ([]gamification.Badge, error) {
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	completed, err := s.progress.CountCompleted(ctx, profileID)
	if err != nil {
		return nil, err
	}

	// Streak tracking is not wired up yet, so streak badges stay locked.
	stats := gamification.Stats{
		XPTotal:          p.XP,
		LessonsCompleted: completed,
	}
	return s.evaluator.Evaluate(ctx, profileID, stats)
}

// PurchaseItem buys a shop item for the profile.
func (s *Service) PurchaseItem(ctx context.Context, profileID, itemID string) (*gamification.Receipt, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	return s.ledger.Purchase(ctx, profileID, itemID)
}

// ListShop returns the shop inventory with the profile's ownership flags.
func (s *Service) ListShop(ctx context.Context, profileID string) ([]ShopEntry, error) {
	items, err := s.rewards.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	ownership, err := s.rewards.ListOwnership(ctx, profileID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(ownership))
	for _, o := range ownership {
		owned[o.ItemID] = true
	}
	entries := make([]ShopEntry, len(items))
	for i, item := range items {
		entries[i] = ShopEntry{Item: item, Owned: owned[item.ID]}
	}
	return entries, nil
}

// ShopEntry is one shop item with the caller's ownership flag.
type ShopEntry struct {
	Item  gamification.Item `json:"item"`
	Owned bool              `json:"owned"`
}

// GenerateCurriculum creates a subject with AI-drafted chapters. It is
// idempotent on (name, grade): if the subject already exists its chapters
// are returned unchanged.
func (s *Service) GenerateCurriculum(ctx context.Context, name string, grade int) (*content.Subject, []content.Chapter, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("%w: subject name is required", ErrValidation)
	}
	if grade < minGrade || grade > maxGrade {
		return nil, nil, fmt.Errorf("%w: grade must be between %d and %d", ErrValidation, minGrade, maxGrade)
	}

	existing, err := s.contents.FindSubject(ctx, name, grade)
	if err == nil {
		chapters, err := s.contents.ListChapters(ctx, existing.ID)
		if err != nil {
			return nil, nil, err
		}
		return existing, chapters, nil
	}
	if !errors.Is(err, content.ErrSubjectNotFound) {
		return nil, nil, err
	}

	drafts, err := s.orch.GenerateCurriculum(ctx, grade, name)
	if err != nil {
		return nil, nil, err
	}

	subject := content.Subject{
		ID:         uuid.NewString(),
		Name:       name,
		GradeLevel: grade,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.contents.CreateSubject(ctx, subject); err != nil {
		return nil, nil, err
	}

	chapters := make([]content.Chapter, len(drafts))
	for i, d := range drafts {
		chapters[i] = content.Chapter{
			ID:          uuid.NewString(),
			SubjectID:   subject.ID,
			Title:       d.Title,
			Description: d.Description,
			OrderIndex:  i + 1,
		}
	}
	if err := s.contents.CreateChapters(ctx, chapters...); err != nil {
		return nil, nil, err
	}

	slog.Info("curriculum generated",
		"subject", name,
		"grade", grade,
		"chapters", len(chapters),
	)
	return &subject, chapters, nil
}

// ListSubjects returns the subject catalog page. grade 0 means all grades.
func (s *Service) ListSubjects(ctx context.Context, grade, limit, offset int) ([]content.Subject, error) {
	if grade != 0 && (grade < minGrade || grade > maxGrade) {
		return nil, fmt.Errorf("%w: grade must be between %d and %d", ErrValidation, minGrade, maxGrade)
	}
	if limit < 0 || limit > maxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrValidation, maxPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	return s.contents.ListSubjects(ctx, grade, limit, offset)
}

// ListChapters returns a subject's chapters in teaching order.
func (s *Service) ListChapters(ctx context.Context, subjectID string) ([]content.Chapter, error) {
	if _, err := s.contents.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.contents.ListChapters(ctx, subjectID)
}

// CreateProfile creates a learner profile under an account.
func (s *Service) CreateProfile(ctx context.Context, accountID, displayName string, grade int, avatar string) (*profile.Profile, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}
	if grade < minGrade || grade > maxGrade {
		return nil, fmt.Errorf("%w: grade must be between %d and %d", ErrValidation, minGrade, maxGrade)
	}

	p := profile.Profile{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		DisplayName: displayName,
		Grade:       grade,
		AvatarName:  avatar,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns one profile.
func (s *Service) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	return s.profiles.Get(ctx, id)
}

// ListProfiles returns an account's profiles, oldest first.
func (s *Service) ListProfiles(ctx context.Context, accountID string) ([]profile.Profile, error) {
	return s.profiles.ListByAccount(ctx, accountID)
}

// Overview is a profile's full picture for the dashboard.
type Overview struct {
	Profile profile.Profile      `json:"profile"`
	Records []progress.Record    `json:"records"`
	Badges  []gamification.Badge `json:"badges"`
}

// GetOverview returns the profile with its progress and earned badges.
func (s *Service) GetOverview(ctx context.Context, profileID string) (*Overview, error) {
	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	awards, err := s.rewards.ListAwards(ctx, profileID)
	if err != nil {
		return nil, err
	}

	badges, err := s.rewards.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]gamification.Badge, len(badges))
	for _, b := range badges {
		byID[b.ID] = b
	}
	earned := make([]gamification.Badge, 0, len(awards))
	for _, a := range awards {
		if b, ok := byID[a.BadgeID]; ok {
			earned = append(earned, b)
		}
	}

	return &Overview{Profile: *p, Records: records, Badges: earned}, nil
}
