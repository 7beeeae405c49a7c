package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ChapterDraft is a generated chapter outline entry.
type ChapterDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuestionDraft is a generated multiple-choice question.
type QuestionDraft struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
}

// QuizDraft is a generated question set.
type QuizDraft struct {
	Questions []QuestionDraft `json:"questions"`
}

// LessonDraft is the output of one lesson generation pass: the lesson body
// plus the quiz derived from it, produced together so both can be persisted
// in the same cache fill.
type LessonDraft struct {
	LessonText string
	Quiz       QuizDraft
	Provider   string
}

// Orchestrator holds the set of configured providers and resolves which one
// serves each call. The stub is always registered: a missing or unconfigured
// preferred provider is degraded mode, never an error. A transient failure
// from a resolved provider is surfaced, not silently swapped.
type Orchestrator struct {
	mu        sync.RWMutex
	providers map[string]Provider
	ranked    []string // registration order is preference order
	stub      Provider
}

// NewOrchestrator creates an orchestrator with the stub fallback in place.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		providers: make(map[string]Provider),
		stub:      NewStubProvider(),
	}
}

// Register adds a configured provider. Registration order is fallback rank.
func (o *Orchestrator) Register(name string, provider Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.providers[name]; !exists {
		o.ranked = append(o.ranked, name)
	}
	o.providers[name] = provider
}

// HasLiveProvider reports whether any non-stub provider is registered.
func (o *Orchestrator) HasLiveProvider() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.providers) > 0
}

// ResolveProvider returns the provider registered under preferred, the
// highest-ranked registered provider when preferred is absent, and the stub
// when nothing is registered. It never fails.
func (o *Orchestrator) ResolveProvider(preferred string) Provider {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return pickProvider(preferred, o.ranked, o.providers, o.stub)
}

// pickProvider is the selection rule, independent of any vendor client.
func pickProvider(preferred string, ranked []string, providers map[string]Provider, stub Provider) Provider {
	if p, ok := providers[preferred]; ok {
		return p
	}
	for _, name := range ranked {
		if p, ok := providers[name]; ok {
			return p
		}
	}
	return stub
}

// GenerateCurriculum produces a chapter outline for a grade and subject.
func (o *Orchestrator) GenerateCurriculum(ctx context.Context, grade int, subject string) ([]ChapterDraft, error) {
	provider := o.ResolveProvider("")
	prompt, schema := CurriculumPrompt(grade, subject)

	raw, err := provider.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return nil, generationError(provider.Name(), "curriculum", err)
	}

	var out struct {
		Chapters []ChapterDraft `json:"chapters"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w (curriculum): %v", ErrMalformedGeneration, err)
	}

	slog.Debug("curriculum generated",
		"provider", provider.Name(),
		"subject", subject,
		"chapters", len(out.Chapters),
	)
	return out.Chapters, nil
}

// GenerateLesson produces a lesson body and its quiz in one pass.
func (o *Orchestrator) GenerateLesson(ctx context.Context, title, description string, grade int) (LessonDraft, error) {
	provider := o.ResolveProvider("")

	lessonText, err := provider.GenerateText(ctx, LessonPrompt(title, description, grade), "")
	if err != nil {
		return LessonDraft{}, generationError(provider.Name(), "lesson", err)
	}

	quizPrompt, schema := QuizPrompt(title, lessonText, grade)
	raw, err := provider.GenerateJSON(ctx, quizPrompt, schema)
	if err != nil {
		return LessonDraft{}, generationError(provider.Name(), "quiz", err)
	}

	var quiz QuizDraft
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return LessonDraft{}, fmt.Errorf("%w (quiz): %v", ErrMalformedGeneration, err)
	}

	slog.Debug("lesson generated",
		"provider", provider.Name(),
		"chapter", title,
		"lesson_len", len(lessonText),
		"questions", len(quiz.Questions),
	)
	return LessonDraft{
		LessonText: lessonText,
		Quiz:       quiz,
		Provider:   provider.Name(),
	}, nil
}

// generationError preserves schema mismatches and wraps everything else as a
// generation failure attributed to the provider.
func generationError(provider, task string, err error) error {
	if errors.Is(err, ErrMalformedGeneration) {
		return err
	}
	return fmt.Errorf("%w: provider %s (%s): %v", ErrGenerationFailed, provider, task, err)
}
