package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient generates completions and embeddings with Google models
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGeminiClient opens a client authenticated with an API key
func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

// Name returns the provider name
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Generate asks for a JSON answer at temperature zero
func (c *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// EmbedTexts embeds all texts with one batch call
func (c *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d texts", ErrEmptyResponse, len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range res.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: missing embedding %d", ErrEmptyResponse, i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Close releases the underlying connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
