package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(home, ".local/share/recollect/recollect.db"), cfg.Database.Path)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 60, cfg.LLM.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Merchant.LookupTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Merchant.CacheTTL)
	assert.Equal(t, 10, cfg.Context.HistoryLimit)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.HasModel())
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("database.path", "/tmp/recollect-test.db")
	v.Set("llm.provider", " Anthropic ")
	v.Set("llm.api_key", "sk-test")
	v.Set("llm.max_retries", 5)
	v.Set("llm.retry_delay", "250ms")
	v.Set("context.timezone", "America/New_York")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/recollect-test.db", cfg.Database.Path)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.True(t, cfg.HasModel())
	assert.Equal(t, "America/New_York", cfg.Location.String())

	client := cfg.ClientConfig()
	assert.Equal(t, "anthropic", client.Provider)
	assert.Equal(t, "sk-test", client.APIKey)
	assert.Equal(t, 60, client.RateLimit)

	retry := cfg.RetryOptions()
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, retry.InitialDelay)
	assert.InDelta(t, 2.0, retry.Multiplier, 0.0001)
}

func TestLoad_ProviderKeyFromEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	v := viper.New()
	v.Set("llm.provider", "anthropic")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
	}{
		{name: "unknown provider", key: "llm.provider", value: "cohere", wantErr: common.ErrInvalidConfig},
		{name: "temperature too high", key: "llm.temperature", value: 3.5, wantErr: common.ErrInvalidConfig},
		{name: "zero max tokens", key: "llm.max_tokens", value: 0, wantErr: common.ErrInvalidConfig},
		{name: "zero retries", key: "llm.max_retries", value: 0, wantErr: common.ErrInvalidConfig},
		{name: "negative history", key: "context.history_limit", value: -1, wantErr: common.ErrInvalidConfig},
		{name: "bad timezone", key: "context.timezone", value: "Mars/Olympus", wantErr: common.ErrInvalidConfig},
		{name: "empty database path", key: "database.path", value: " ", wantErr: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RECOLLECT_TEST_DIR", "/srv/data")

	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "~", expected: home},
		{input: "~/notes.db", expected: filepath.Join(home, "notes.db")},
		{input: "$RECOLLECT_TEST_DIR/r.db", expected: "/srv/data/r.db"},
		{input: "/abs/path.db", expected: "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}
