// Package llm sends prompts to a text generation model.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey indicates that no model API key was configured.
	ErrMissingAPIKey = errors.New("anthropic api key is required")
	// ErrEmptyCompletion indicates a response without any text content.
	ErrEmptyCompletion = errors.New("completion contained no text")
)

// Generator produces a completion for a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt string, userPrompt string) (string, error)

// Generate invokes the underlying function.
func (generator GeneratorFunc) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return generator(ctx, systemPrompt, userPrompt)
}
