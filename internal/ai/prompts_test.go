package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestQuizPrompt_TruncatesLessonText(t *testing.T) {
	long := strings.Repeat("x", 2000)

	prompt, _ := QuizPrompt("Numbers", long, 3)

	if strings.Contains(prompt, long) {
		t.Error("quiz prompt should not contain the full lesson text")
	}
	if !strings.Contains(prompt, long[:maxLessonContext]+"...") {
		t.Error("quiz prompt should contain the truncated lesson prefix")
	}
}

func TestQuizPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	// Place a four-byte emoji across the truncation point so a byte-wise
	// cut would split it.
	long := strings.Repeat("x", maxLessonContext-2) + "🦉" + strings.Repeat("y", 100)

	prompt, _ := QuizPrompt("Numbers", long, 3)

	if !utf8.ValidString(prompt) {
		t.Error("truncated prompt contains invalid UTF-8")
	}
	if strings.Contains(prompt, "🦉") {
		t.Error("emoji straddling the limit should be dropped whole")
	}
}

func TestQuizPrompt_ShortLessonKeptWhole(t *testing.T) {
	prompt, schema := QuizPrompt("Numbers", "short lesson", 3)

	if !strings.Contains(prompt, "short lesson") {
		t.Error("short lesson text should be included untruncated")
	}
	if schema.Name != "quiz" {
		t.Errorf("schema name = %q, want quiz", schema.Name)
	}
}

func TestCurriculumPrompt_IncludesGradeAndSubject(t *testing.T) {
	prompt, schema := CurriculumPrompt(5, "Science")

	if !strings.Contains(prompt, "Science") || !strings.Contains(prompt, "Grade 5") {
		t.Errorf("prompt missing grade/subject: %q", prompt)
	}
	if schema.Name != "curriculum" {
		t.Errorf("schema name = %q, want curriculum", schema.Name)
	}
}

func TestLessonPrompt_IsPure(t *testing.T) {
	a := LessonPrompt("Fractions", "desc", 4)
	b := LessonPrompt("Fractions", "desc", 4)
	if a != b {
		t.Error("LessonPrompt() should be deterministic")
	}
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid quiz", stubQuestions, false},
		{"missing questions key", `{"data": 1}`, true},
		{"wrong questions type", `{"questions": "nope"}`, true},
		{"invalid json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := QuizSchema.Validate([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
