package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder returns a one-hot vector per text length and records batches
type mockEmbedder struct {
	batches [][]string
	err     error
	closed  bool
	extra   int // vectors added to (or dropped from, when negative) each reply
}

func (m *mockEmbedder) Name() string { return "mock" }

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, 0, len(texts)+max(m.extra, 0))
	for _, text := range texts {
		vectors = append(vectors, []float32{float32(len(text)), 1})
	}
	for i := 0; i < m.extra; i++ {
		vectors = append(vectors, []float32{0, 1})
	}
	if m.extra < 0 {
		vectors = vectors[:max(len(vectors)+m.extra, 0)]
	}
	return vectors, nil
}

func (m *mockEmbedder) Close() error {
	m.closed = true
	return nil
}

func TestEncoder_EmbedBatchUsesCache(t *testing.T) {
	client := &mockEmbedder{}
	vectors := cache.NewMemoryCache[[]float32](0)
	defer vectors.Close()

	encoder := NewEncoder(client, time.Second, vectors, time.Minute)
	ctx := context.Background()

	first, err := encoder.EmbedBatch(ctx, []string{"milk", "whole milk"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4, 1}, {10, 1}}, first)

	second, err := encoder.EmbedBatch(ctx, []string{"eggs", "milk"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4, 1}, {4, 1}}, second)

	require.Len(t, client.batches, 2)
	assert.Equal(t, []string{"eggs"}, client.batches[1])
}

func TestEncoder_NoCache(t *testing.T) {
	client := &mockEmbedder{}
	encoder := NewEncoder(client, 0, nil, 0)

	_, err := encoder.Embed(context.Background(), "milk")
	require.NoError(t, err)
	_, err = encoder.Embed(context.Background(), "milk")
	require.NoError(t, err)

	assert.Len(t, client.batches, 2)
	assert.Equal(t, "mock-embeddings", encoder.Name())
}

func TestEncoder_ErrorWrapsUnavailable(t *testing.T) {
	encoder := NewEncoder(&mockEmbedder{err: errors.New("quota exceeded")}, time.Second, nil, 0)

	_, err := encoder.Embed(context.Background(), "milk")
	assert.ErrorIs(t, err, domain.ErrEncoderUnavailable)
}

func TestEncoder_CountMismatchIsUnavailable(t *testing.T) {
	for _, extra := range []int{1, -1} {
		client := &mockEmbedder{extra: extra}
		vectors := cache.NewMemoryCache[[]float32](0)

		encoder := NewEncoder(client, time.Second, vectors, time.Minute)
		got, err := encoder.EmbedBatch(context.Background(), []string{"milk", "whole milk"})
		assert.ErrorIs(t, err, domain.ErrEncoderUnavailable, "extra=%d", extra)
		assert.Nil(t, got)

		assert.Zero(t, vectors.Size(), "nothing is cached from a mismatched reply")
		vectors.Close()
	}
}

func TestEncoder_CloseClosesClient(t *testing.T) {
	client := &mockEmbedder{}
	encoder := NewEncoder(client, 0, nil, 0)

	require.NoError(t, encoder.Close())
	assert.True(t, client.closed)
}

func TestEncoder_ImplementsBatchTextEncoder(t *testing.T) {
	var _ domain.BatchTextEncoder = NewEncoder(&mockEmbedder{}, 0, nil, 0)
}
