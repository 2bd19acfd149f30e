package domain

import "context"

// TextEncoder turns text into a dense vector. Implementations are constructed
// once, shared read-only by concurrent requests, and released with Close.
type TextEncoder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// BatchTextEncoder is implemented by encoders that can embed several texts in
// one round trip.
type BatchTextEncoder interface {
	TextEncoder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ComponentExtractor breaks a query into brand, item and quantity.
type ComponentExtractor interface {
	ExtractComponents(ctx context.Context, query string) (*ExtractedComponents, error)
}
