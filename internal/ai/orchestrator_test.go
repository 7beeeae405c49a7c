package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/owlet-learn/owlet/internal/ai"
)

// fakeProvider is a configurable test double.
type fakeProvider struct {
	name    string
	text    string
	raw     string
	textErr error
	jsonErr error
}

func (f *fakeProvider) GenerateText(_ context.Context, _, _ string) (string, error) {
	return f.text, f.textErr
}

func (f *fakeProvider) GenerateJSON(_ context.Context, _ string, schema ai.Schema) (json.RawMessage, error) {
	if f.jsonErr != nil {
		return nil, f.jsonErr
	}
	raw := json.RawMessage(f.raw)
	if err := schema.Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *fakeProvider) Name() string                        { return f.name }
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func TestOrchestrator_ResolveProvider_Preferred(t *testing.T) {
	orch := ai.NewOrchestrator()
	orch.Register("openai", &fakeProvider{name: "openai"})
	orch.Register("google", &fakeProvider{name: "google"})

	if got := orch.ResolveProvider("google").Name(); got != "google" {
		t.Errorf("ResolveProvider(google) = %q, want google", got)
	}
}

func TestOrchestrator_ResolveProvider_FallsBackToRanked(t *testing.T) {
	orch := ai.NewOrchestrator()
	orch.Register("openai", &fakeProvider{name: "openai"})

	// Preferred name is not registered; the highest-ranked provider wins.
	if got := orch.ResolveProvider("anthropic").Name(); got != "openai" {
		t.Errorf("ResolveProvider(anthropic) = %q, want openai", got)
	}
}

func TestOrchestrator_ResolveProvider_StubWhenEmpty(t *testing.T) {
	orch := ai.NewOrchestrator()

	if got := orch.ResolveProvider("openai").Name(); got != "stub" {
		t.Errorf("ResolveProvider() = %q, want stub", got)
	}
	if orch.HasLiveProvider() {
		t.Error("HasLiveProvider() should be false with no registrations")
	}
}

func TestOrchestrator_GenerateLesson_Stub(t *testing.T) {
	orch := ai.NewOrchestrator()

	draft, err := orch.GenerateLesson(context.Background(), "The Magic of Numbers", "Intro to numbers", 3)
	if err != nil {
		t.Fatalf("GenerateLesson() error = %v", err)
	}
	if draft.LessonText == "" {
		t.Error("lesson text is empty")
	}
	if len(draft.Quiz.Questions) == 0 {
		t.Error("quiz has no questions")
	}
	if draft.Provider != "stub" {
		t.Errorf("provider = %q, want stub", draft.Provider)
	}
}

func TestOrchestrator_GenerateLesson_ProviderFailureSurfaced(t *testing.T) {
	orch := ai.NewOrchestrator()
	orch.Register("openai", &fakeProvider{
		name:    "openai",
		textErr: errors.New("rate limited"),
	})

	// A configured provider that fails transiently is surfaced, not swapped
	// for the stub.
	_, err := orch.GenerateLesson(context.Background(), "Fractions", "", 5)
	if !errors.Is(err, ai.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestOrchestrator_GenerateLesson_MalformedPassesThrough(t *testing.T) {
	orch := ai.NewOrchestrator()
	orch.Register("openai", &fakeProvider{
		name: "openai",
		text: "a lesson",
		raw:  `{"wrong": "shape"}`,
	})

	_, err := orch.GenerateLesson(context.Background(), "Fractions", "", 5)
	if !errors.Is(err, ai.ErrMalformedGeneration) {
		t.Fatalf("error = %v, want ErrMalformedGeneration", err)
	}
	if errors.Is(err, ai.ErrGenerationFailed) {
		t.Error("schema mismatch must not be reported as a generation failure")
	}
}

func TestOrchestrator_GenerateCurriculum_Stub(t *testing.T) {
	orch := ai.NewOrchestrator()

	chapters, err := orch.GenerateCurriculum(context.Background(), 3, "Mathematics")
	if err != nil {
		t.Fatalf("GenerateCurriculum() error = %v", err)
	}
	if len(chapters) != 3 {
		t.Errorf("chapters = %d, want 3", len(chapters))
	}
}
