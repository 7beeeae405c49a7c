package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StubProvider is the always-available fallback provider. It is pure and
// deterministic: the prompt's keywords select one of a few canned outputs,
// so tests and keyless deployments get stable content.
type StubProvider struct{}

// NewStubProvider creates a stub provider.
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (s *StubProvider) Name() string { return "stub" }

const stubLessonBody = `# Welcome to the World of Numbers! 🎉

Numbers are everywhere! From counting your toys to telling time, numbers help us understand the world.

## What are Numbers?
Numbers are symbols we use to count and measure things. The numbers you know (0, 1, 2, 3...) are called "digits."

## Fun Facts!
- The number 0 was invented over 1,500 years ago!
- Ancient people used their fingers to count, which is why we have 10 digits (0-9)
- The biggest number has a name: it's called a "googolplex"!

## Let's Practice!
Try counting objects around you. How many books do you see? How many windows? Numbers make it easy to keep track!

Remember: Math is like a superpower that helps you solve problems every day! 💪`

const stubChapters = `{
	"chapters": [
		{"title": "The Magic of Numbers", "description": "Intro to numbers"},
		{"title": "Adding Apples", "description": "Basic addition"},
		{"title": "Taking Away Toys", "description": "Basic subtraction"}
	]
}`

const stubQuestions = `{
	"questions": [
		{
			"question": "What is 2 + 2?",
			"options": {"A": "3", "B": "4", "C": "5", "D": "6"},
			"correct_answer": "B",
			"explanation": "When you add 2 and 2 together, you get 4!"
		},
		{
			"question": "Which number comes after 5?",
			"options": {"A": "4", "B": "5", "C": "6", "D": "7"},
			"correct_answer": "C",
			"explanation": "The number 6 comes right after 5 when counting!"
		}
	]
}`

func (s *StubProvider) GenerateText(_ context.Context, prompt, _ string) (string, error) {
	if strings.Contains(strings.ToLower(prompt), "lesson") {
		return stubLessonBody, nil
	}
	return fmt.Sprintf("[stub response] You asked: %s. Here is a fun fact about space!", prompt), nil
}

func (s *StubProvider) GenerateJSON(_ context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	var out json.RawMessage
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "chapter"):
		out = json.RawMessage(stubChapters)
	case strings.Contains(lower, "question"):
		out = json.RawMessage(stubQuestions)
	default:
		out = json.RawMessage(`{"data": "stub"}`)
	}

	if err := schema.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StubProvider) HealthCheck(_ context.Context) error {
	return nil
}
