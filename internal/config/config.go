package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/llm"
	"github.com/Veraticus/recollect/internal/service"
)

// Config is the resolved application configuration.
type Config struct {
	Location *time.Location
	Logging  LoggingConfig
	Database DatabaseConfig
	Merchant MerchantConfig
	LLM      LLMConfig
	Context  ContextConfig
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
	Timeout     time.Duration
}

// MerchantConfig tunes merchant lookups.
type MerchantConfig struct {
	LookupTimeout time.Duration
	CacheTTL      time.Duration
}

// ContextConfig tunes context building.
type ContextConfig struct {
	Timezone     string
	HistoryLimit int
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", "~/.local/share/recollect/recollect.db")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("merchant.lookup_timeout", 3*time.Second)
	v.SetDefault("merchant.cache_ttl", 24*time.Hour)
	v.SetDefault("context.timezone", "Local")
	v.SetDefault("context.history_limit", 10)
}

// Load resolves the configuration from v, applying defaults first. The API
// key falls back to the provider's conventional environment variable.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Merchant: MerchantConfig{
			LookupTimeout: v.GetDuration("merchant.lookup_timeout"),
			CacheTTL:      v.GetDuration("merchant.cache_ttl"),
		},
		Context: ContextConfig{
			Timezone:     v.GetString("context.timezone"),
			HistoryLimit: v.GetInt("context.history_limit"),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(v, cfg.LLM.Provider)
	}

	loc, err := time.LoadLocation(cfg.Context.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: context.timezone %q: %w", common.ErrInvalidConfig, cfg.Context.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerKeyFromEnv reads OPENAI_API_KEY or ANTHROPIC_API_KEY.
func providerKeyFromEnv(v *viper.Viper, provider string) string {
	key := strings.ToUpper(provider) + "_API_KEY"
	if err := v.BindEnv("llm.provider_key", key); err != nil {
		return ""
	}
	return v.GetString("llm.provider_key")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be between 0 and 2", common.ErrInvalidConfig)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm.max_tokens must be positive", common.ErrInvalidConfig)
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("%w: llm.max_retries must be at least 1", common.ErrInvalidConfig)
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("%w: llm.rate_limit cannot be negative", common.ErrInvalidConfig)
	}
	if c.Context.HistoryLimit < 0 {
		return fmt.Errorf("%w: context.history_limit cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// HasModel reports whether a model can be called.
func (c *Config) HasModel() bool {
	return c.LLM.APIKey != ""
}

// ClientConfig converts the LLM settings for llm.NewClient.
func (c *Config) ClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		RateLimit:   c.LLM.RateLimit,
		Timeout:     c.LLM.Timeout,
	}
}

// RetryOptions derives backoff settings from the LLM settings.
func (c *Config) RetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  c.LLM.MaxRetries,
		InitialDelay: c.LLM.RetryDelay,
		MaxDelay:     30 * c.LLM.RetryDelay,
		Multiplier:   2.0,
	}
}
