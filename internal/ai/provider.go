// Package ai provides a provider-agnostic content generation layer with
// schema-validated structured output and a deterministic stub fallback.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrGenerationFailed indicates a provider call errored. The failure is
	// surfaced to the caller; nothing is cached and the next request retries.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrMalformedGeneration indicates a provider returned data that does not
	// match the declared schema. Callers must not attempt to repair the payload.
	ErrMalformedGeneration = errors.New("generated content does not match schema")
)

// Schema declares the required shape of a structured generation result.
type Schema struct {
	Name     string // short identifier, used in logs and prompts
	Document string // JSON Schema document
}

// Validate checks a generated JSON document against the schema.
// Any mismatch, including invalid JSON, reports ErrMalformedGeneration.
func (s Schema) Validate(doc json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(s.Document),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w (%s): %v", ErrMalformedGeneration, s.Name, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w (%s): %s", ErrMalformedGeneration, s.Name, result.Errors()[0])
	}
	return nil
}

// Provider is the interface all content providers must implement.
type Provider interface {
	// GenerateText produces free text for a prompt. systemPrompt may be empty.
	GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error)

	// GenerateJSON produces structured data that validates against schema.
	// A provider that cannot guarantee the shape fails with ErrMalformedGeneration.
	GenerateJSON(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error)

	// Name identifies the provider for registration and logging.
	Name() string

	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) error
}
