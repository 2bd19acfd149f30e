package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/infrastructure/cache"
)

// CachedExtractor memoizes successful extractions by normalized query.
// Failures are never cached.
type CachedExtractor struct {
	next    domain.ComponentExtractor
	results *cache.MemoryCache[domain.ExtractedComponents]
	ttl     time.Duration
}

// NewCachedExtractor wraps next with a cache of the given TTL
func NewCachedExtractor(next domain.ComponentExtractor, results *cache.MemoryCache[domain.ExtractedComponents], ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{next: next, results: results, ttl: ttl}
}

// ExtractComponents implements domain.ComponentExtractor
func (c *CachedExtractor) ExtractComponents(ctx context.Context, query string) (*domain.ExtractedComponents, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))

	cached, err := c.results.Get(ctx, key)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, err
	}

	comps, err := c.next.ExtractComponents(ctx, query)
	if err != nil || comps == nil {
		return comps, err
	}

	if err := c.results.Set(ctx, key, *comps, c.ttl); err != nil {
		log.Printf("[LLM] Failed to cache components for %q: %v", query, err)
	}
	return comps, nil
}
