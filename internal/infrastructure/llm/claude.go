package llm

import (
	"context"

	"github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 256

// ClaudeClient generates completions with Anthropic models. It has no embedding endpoint.
type ClaudeClient struct {
	client *anthropic.Client
	model  string
}

// NewClaudeClient creates a client. An empty baseURL targets the public API.
func NewClaudeClient(apiKey, model, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Name returns the provider name
func (c *ClaudeClient) Name() string {
	return "claude"
}

// Generate sends the system instruction and prompt and returns the first text block
func (c *ClaudeClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: system,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   claudeMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	for _, content := range resp.Content {
		if content.Text != nil {
			return *content.Text, nil
		}
	}
	return "", ErrEmptyResponse
}
