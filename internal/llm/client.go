package llm

import (
	"context"
	"errors"
	"fmt"
)

// LLMClient sends a prompt to the extraction service and returns its raw text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationOptions is applied to every request a client makes.
// Low temperature keeps output reproducible; MaxTokens bounds truncation.
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int
}

// DefaultGenerationOptions is used when a client is created with zero options.
var DefaultGenerationOptions = GenerationOptions{Temperature: 0.1, MaxTokens: 4096}

func (o GenerationOptions) withDefaults() GenerationOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultGenerationOptions.MaxTokens
	}
	if o.Temperature < 0 {
		o.Temperature = DefaultGenerationOptions.Temperature
	}
	return o
}

// ErrNoContent is returned when the service answered successfully with no text.
var ErrNoContent = errors.New("no response content")

// UpstreamError is a failed or non-success call to the extraction service.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.Status, e.Body)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s upstream error: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(provider string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Provider: provider, Err: err}
}
