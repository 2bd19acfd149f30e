package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI API or any server speaking its protocol
type OpenAIClient struct {
	client         *openai.Client
	name           string
	model          string
	embeddingModel string
}

// NewOpenAIClient creates a client. An empty baseURL targets api.openai.com.
func NewOpenAIClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(config),
		name:           "openai",
		model:          model,
		embeddingModel: embeddingModel,
	}
}

// Name returns the provider name
func (c *OpenAIClient) Name() string {
	return c.name
}

// Generate runs a deterministic chat completion in JSON mode
func (c *OpenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// A literal zero is dropped by omitempty
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// EmbedTexts embeds all texts in one request
func (c *OpenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d texts", ErrEmptyResponse, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
