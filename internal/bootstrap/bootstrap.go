// Package bootstrap turns configuration into a ready MatchingService for the
// server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/macrolens/productmatch/config"
	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/infrastructure/cache"
	"github.com/macrolens/productmatch/internal/infrastructure/llm"
	"github.com/macrolens/productmatch/internal/rules"
	"github.com/macrolens/productmatch/internal/usecase"
)

// App holds the wired service and everything that must be released with it
type App struct {
	Service *usecase.MatchingService
	closers []io.Closer
}

// New builds the matching service described by cfg. Provider failures degrade
// to TF-IDF and to running without component extraction; only broken rule
// tables and invalid profiles are fatal.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	compiled, err := loadRules(cfg.Matching.RulesPath)
	if err != nil {
		return nil, err
	}

	profiles, err := ProfilesFromConfig(cfg.Matching.Profiles)
	if err != nil {
		return nil, err
	}

	encoder := app.newEncoder(ctx, cfg.Embedding)
	extractor := app.newExtractor(ctx, cfg.LLM, compiled, cfg.Matching.EnableDebugLogging)

	app.Service = usecase.NewMatchingService(compiled, encoder, extractor, usecase.MatchConfig{
		Profiles:           profiles,
		DefaultProfile:     cfg.Matching.DefaultProfile,
		QuantityTolerance:  cfg.Matching.QuantityTolerance,
		StoreConcurrency:   cfg.Matching.StoreConcurrency,
		ExtractorTimeout:   cfg.LLM.Timeout,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	return app, nil
}

// Close releases provider clients and caches
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func loadRules(path string) (*rules.Compiled, error) {
	if path == "" {
		return rules.Default()
	}

	compiled, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	log.Printf("[RULES] Loaded rule tables from %s", path)
	return compiled, nil
}

func (a *App) newEncoder(ctx context.Context, cfg config.EmbeddingConfig) domain.TextEncoder {
	client, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		if !errors.Is(err, llm.ErrProviderDisabled) {
			log.Printf("[EMBED] Embedding provider unavailable, using TF-IDF: %v", err)
		}
		return nil
	}

	var vectors *cache.MemoryCache[[]float32]
	if cfg.CacheTTL > 0 {
		vectors = cache.NewMemoryCache[[]float32](0)
		a.closers = append(a.closers, vectors)
	}

	encoder := llm.NewEncoder(client, cfg.Timeout, vectors, cfg.CacheTTL)
	a.closers = append(a.closers, encoder)

	log.Printf("[EMBED] Using %s encoder", encoder.Name())
	return encoder
}

func (a *App) newExtractor(ctx context.Context, cfg config.LLMConfig, compiled *rules.Compiled, debug bool) domain.ComponentExtractor {
	if cfg.Provider == "rules" {
		log.Printf("[LLM] Using rule-based component extraction")
		return usecase.NewQueryPreprocessor(compiled, debug)
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		if !errors.Is(err, llm.ErrProviderDisabled) {
			log.Printf("[LLM] Component extraction disabled: %v", err)
		}
		return nil
	}
	if closer, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	var extractor domain.ComponentExtractor = llm.NewComponentExtractor(client, llm.ExtractorConfig{
		RequestsPerSecond:  cfg.RequestsPerSecond,
		Burst:              cfg.Burst,
		MaxRetries:         cfg.MaxRetries,
		EnableDebugLogging: debug,
	})

	if cfg.CacheTTL > 0 {
		results := cache.NewMemoryCache[domain.ExtractedComponents](0)
		a.closers = append(a.closers, results)
		extractor = llm.NewCachedExtractor(extractor, results, cfg.CacheTTL)
	}

	log.Printf("[LLM] Using %s model %s for component extraction", client.Name(), cfg.Model)
	return extractor
}

// ProfilesFromConfig converts configured profiles. A profile named after a
// built-in starts from it, any other from the default profile; zero
// thresholds keep the base values.
func ProfilesFromConfig(configured map[string]config.ProfileConfig) (map[string]usecase.Profile, error) {
	builtins := usecase.DefaultProfiles()
	profiles := make(map[string]usecase.Profile, len(configured))

	for name, pc := range configured {
		profile, ok := builtins[name]
		if !ok {
			profile = builtins[usecase.ProfileDefault]
		}

		if len(pc.Weights) > 0 {
			weights, err := profile.Weights.WithOverrides(pc.Weights)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", name, err)
			}
			profile.Weights = weights
		}
		if pc.ConfThreshold > 0 {
			profile.ConfThreshold = pc.ConfThreshold
		}
		if pc.TieDelta > 0 {
			profile.TieDelta = pc.TieDelta
		}

		profiles[name] = profile
	}

	return profiles, nil
}
