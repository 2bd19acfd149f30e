package llm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/infrastructure/cache"
)

// Encoder adapts an EmbedderClient to domain.BatchTextEncoder. Vectors are
// memoized per text when a cache is supplied.
type Encoder struct {
	client   EmbedderClient
	timeout  time.Duration
	vectors  *cache.MemoryCache[[]float32]
	cacheTTL time.Duration
}

// NewEncoder creates an encoder. A nil vectors cache or zero cacheTTL disables memoization.
func NewEncoder(client EmbedderClient, timeout time.Duration, vectors *cache.MemoryCache[[]float32], cacheTTL time.Duration) *Encoder {
	if cacheTTL <= 0 {
		vectors = nil
	}
	return &Encoder{
		client:   client,
		timeout:  timeout,
		vectors:  vectors,
		cacheTTL: cacheTTL,
	}
}

// Name identifies the encoder in logs and health output
func (e *Encoder) Name() string {
	return e.client.Name() + "-embeddings"
}

// Embed embeds one text
func (e *Encoder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in order, sending only cache misses to the provider
func (e *Encoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if e.vectors != nil {
			if v, err := e.vectors.Get(ctx, text); err == nil {
				vectors[i] = v
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	fetched, err := e.client.EmbedTexts(callCtx, missing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoderUnavailable, err)
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEncoderUnavailable, len(fetched), len(missing))
	}

	for j, v := range fetched {
		vectors[missingIdx[j]] = v
		if e.vectors != nil {
			_ = e.vectors.Set(ctx, missing[j], v, e.cacheTTL)
		}
	}
	return vectors, nil
}

// Close releases the provider client when it holds a connection
func (e *Encoder) Close() error {
	if closer, ok := e.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
