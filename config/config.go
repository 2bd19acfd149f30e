package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig configures the chat model used for component extraction
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // "none", "rules", "openai", "claude", "gemini" or "ollama"
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"` // zero disables caching
}

// EmbeddingConfig configures the text encoder. Provider "none" uses TF-IDF.
type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"` // "none", "openai", "gemini" or "ollama"
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // zero disables caching
}

// MatchingConfig holds matching algorithm configuration
type MatchingConfig struct {
	DefaultProfile     string                   `mapstructure:"default_profile"`
	QuantityTolerance  float64                  `mapstructure:"quantity_tolerance"`
	StoreConcurrency   int                      `mapstructure:"store_concurrency"`
	EnableDebugLogging bool                     `mapstructure:"enable_debug_logging"`
	RulesPath          string                   `mapstructure:"rules_path"`
	Profiles           map[string]ProfileConfig `mapstructure:"profiles"`
}

// ProfileConfig overrides or adds a named scoring profile
type ProfileConfig struct {
	ConfThreshold float64            `mapstructure:"conf_threshold"`
	TieDelta      float64            `mapstructure:"tie_delta"`
	Weights       map[string]float64 `mapstructure:"weights"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Profiles that exist without configuration
var builtinProfiles = map[string]bool{
	"default":              true,
	"lenient":              true,
	"store_fallback":       true,
	"store_low_confidence": true,
}

var (
	llmProviders       = map[string]bool{"none": true, "rules": true, "openai": true, "claude": true, "gemini": true, "ollama": true}
	embeddingProviders = map[string]bool{"none": true, "openai": true, "gemini": true, "ollama": true}
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file when path is set,
// otherwise from config.yaml in the standard search paths.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/productmatch/")
	}

	// Environment variable settings
	v.SetEnvPrefix("PRODUCTMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The extractor has always read the plain OpenAI variable
	if err := v.BindEnv("llm.api_key", "PRODUCTMATCH_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	normalize(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "12s")
	v.SetDefault("llm.requests_per_second", 5.0)
	v.SetDefault("llm.burst", 10)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.cache_ttl", "30m")

	// Embedding defaults
	v.SetDefault("embedding.provider", "none")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.timeout", "12s")
	v.SetDefault("embedding.cache_ttl", "1h")

	// Matching defaults
	v.SetDefault("matching.default_profile", "default")
	v.SetDefault("matching.quantity_tolerance", 0.15)
	v.SetDefault("matching.store_concurrency", 4)
	v.SetDefault("matching.enable_debug_logging", false)
	v.SetDefault("matching.rules_path", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// normalize lowercases provider names and shares the chat key with a
// same-vendor encoder that has none of its own
func normalize(config *Config) {
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(config.LLM.Provider))
	config.Embedding.Provider = strings.ToLower(strings.TrimSpace(config.Embedding.Provider))

	if config.Embedding.APIKey == "" && config.Embedding.Provider == config.LLM.Provider {
		config.Embedding.APIKey = config.LLM.APIKey
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if !llmProviders[config.LLM.Provider] {
		return fmt.Errorf("llm provider must be one of none, rules, openai, claude, gemini, ollama, got: %s", config.LLM.Provider)
	}

	if !embeddingProviders[config.Embedding.Provider] {
		return fmt.Errorf("embedding provider must be one of none, openai, gemini, ollama, got: %s", config.Embedding.Provider)
	}

	if config.LLM.Timeout <= 0 || config.Embedding.Timeout <= 0 {
		return fmt.Errorf("llm and embedding timeouts must be positive")
	}

	if config.LLM.RequestsPerSecond <= 0 || config.LLM.Burst <= 0 {
		return fmt.Errorf("llm rate limit must be positive, got %.2f/s burst %d", config.LLM.RequestsPerSecond, config.LLM.Burst)
	}

	if config.LLM.CacheTTL < 0 || config.Embedding.CacheTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	if config.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries cannot be negative, got: %d", config.LLM.MaxRetries)
	}

	if config.Matching.QuantityTolerance <= 0 || config.Matching.QuantityTolerance >= 1 {
		return fmt.Errorf("quantity tolerance must be between 0 and 1, got: %v", config.Matching.QuantityTolerance)
	}

	if config.Matching.StoreConcurrency <= 0 {
		return fmt.Errorf("store concurrency must be positive, got: %d", config.Matching.StoreConcurrency)
	}

	for name, p := range config.Matching.Profiles {
		if p.ConfThreshold < 0 || p.TieDelta < 0 {
			return fmt.Errorf("profile %q: conf_threshold and tie_delta cannot be negative", name)
		}
		for key, w := range p.Weights {
			if w < 0 {
				return fmt.Errorf("profile %q: weight %s cannot be negative", name, key)
			}
		}
	}

	if _, ok := config.Matching.Profiles[config.Matching.DefaultProfile]; !ok && !builtinProfiles[config.Matching.DefaultProfile] {
		return fmt.Errorf("default profile %q is not defined", config.Matching.DefaultProfile)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
