// Package llm answers questions about a document through a hosted or local language model.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider is a synchronous text generation backend.
type Provider interface {
	// Name identifies the provider in logs, metrics and errors.
	Name() string

	// Generate returns the model's text for prompt. It must honour ctx cancellation.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrDocumentTooLarge is returned instead of sending a document longer than the
// configured limit to the provider.
var ErrDocumentTooLarge = errors.New("document exceeds the prompt size limit")

// GenerationError is returned for every failed answer, whatever the cause.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate answer with %s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
