package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/macrolens/productmatch/config"
)

// Default embedding models per provider
const (
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultGeminiEmbeddingModel = "text-embedding-004"
	defaultOllamaEmbeddingModel = "nomic-embed-text"
	defaultOllamaBaseURL        = "http://localhost:11434"
)

// NewClient builds the chat client named by cfg.Provider
func NewClient(ctx context.Context, cfg config.LLMConfig) (ChatClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "", "none":
		return nil, ErrProviderDisabled

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, "", cfg.BaseURL), nil

	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: claude", ErrMissingAPIKey)
		}
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini", ErrMissingAPIKey)
		}
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, "")
		if err != nil {
			return nil, err
		}
		return c, nil

	case "ollama":
		return newOllamaClient(cfg.APIKey, cfg.Model, "", cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// NewEmbedder builds the embedding client named by cfg.Provider
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "", "none":
		return nil, ErrProviderDisabled

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}
		return NewOpenAIClient(cfg.APIKey, "", orDefault(cfg.Model, defaultOpenAIEmbeddingModel), cfg.BaseURL), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini", ErrMissingAPIKey)
		}
		c, err := NewGeminiClient(ctx, cfg.APIKey, "", orDefault(cfg.Model, defaultGeminiEmbeddingModel))
		if err != nil {
			return nil, err
		}
		return c, nil

	case "ollama":
		return newOllamaClient(cfg.APIKey, "", orDefault(cfg.Model, defaultOllamaEmbeddingModel), cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// newOllamaClient points the OpenAI client at Ollama's compatible API
func newOllamaClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	baseURL = strings.TrimRight(orDefault(baseURL, defaultOllamaBaseURL), "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	// Ollama ignores the key but the client requires one
	if apiKey == "" {
		apiKey = "ollama"
	}

	log.Printf("[LLM] Using Ollama OpenAI-compatible API at %s", baseURL)

	c := NewOpenAIClient(apiKey, model, embeddingModel, baseURL)
	c.name = "ollama"
	return c
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
