package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	extractorSystemPrompt = "You extract structured fields from product queries. Return JSON with keys: Brand, Item, Quantity. Use null if unknown."
	extractorUserPrompt   = "identify brand, item and quantity in this: %s"

	defaultRequestsPerSecond = 5
	defaultBurst             = 10
	defaultRetryBackoff      = 500 * time.Millisecond
)

// ExtractorConfig holds outbound limits for the extractor
type ExtractorConfig struct {
	RequestsPerSecond  float64
	Burst              int
	MaxRetries         int
	RetryBackoff       time.Duration
	EnableDebugLogging bool
}

// ComponentExtractor asks a chat model for the brand, item and quantity of a query
type ComponentExtractor struct {
	client             ChatClient
	rateLimiter        *rate.Limiter
	maxRetries         int
	retryBackoff       time.Duration
	enableDebugLogging bool
}

// NewComponentExtractor creates an extractor over client with defaults for unset limits
func NewComponentExtractor(client ChatClient, config ExtractorConfig) *ComponentExtractor {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaultRequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = defaultBurst
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaultRetryBackoff
	}

	return &ComponentExtractor{
		client:             client,
		rateLimiter:        rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		maxRetries:         config.MaxRetries,
		retryBackoff:       config.RetryBackoff,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ExtractComponents implements domain.ComponentExtractor
func (e *ComponentExtractor) ExtractComponents(ctx context.Context, query string) (*domain.ExtractedComponents, error) {
	prompt := fmt.Sprintf(extractorUserPrompt, query)

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries+1; attempt++ {
		// Wait for rate limiter
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		reply, err := e.client.Generate(ctx, extractorSystemPrompt, prompt)
		if err != nil {
			log.Printf("[LLM] %s request error (attempt %d): %v", e.client.Name(), attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
			if !retryable(err) || attempt > e.maxRetries {
				break
			}
			if err := sleep(ctx, time.Duration(attempt)*e.retryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		if e.enableDebugLogging {
			log.Printf("[LLM] Raw reply for %q: %s", query, reply)
		}

		comps, err := ParseComponents(reply)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
		}
		return comps, nil
	}

	return nil, lastErr
}

// retryable reports whether a provider error may succeed on another attempt
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
