package llm

import (
	"context"
	"errors"
)

var (
	// ErrProviderDisabled is returned by the factories when the provider is "none"
	ErrProviderDisabled = errors.New("provider disabled")

	// ErrMissingAPIKey is returned when a hosted provider is configured without a key
	ErrMissingAPIKey = errors.New("api key not configured")

	// ErrEmptyResponse is returned when a provider answers without content
	ErrEmptyResponse = errors.New("provider returned no content")
)

// ChatClient sends one system instruction and one user prompt to a chat model
// and returns the text of the first answer.
type ChatClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// EmbedderClient embeds texts in a single request, preserving input order.
type EmbedderClient interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}
