package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "qwen2.5:3b", cfg.ClassifierModel)
	assert.Equal(t, 40, cfg.MaxJudgeListings)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "qwen2.5:3b", cfg.RelevanceModel)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host and models", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithClassifierModel("gpt-4o-mini"),
			WithRelevanceModel("gpt-4o"),
			WithAPIKey("sk-test"),
			WithMaxJudgeListings(25),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "gpt-4o-mini", cfg.ClassifierModel)
		assert.Equal(t, "gpt-4o", cfg.RelevanceModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 25, cfg.MaxJudgeListings)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trims trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.Host = "" }},
		{"missing model", func(c *Config) { c.ClassifierModel = "" }},
		{"zero judge listings", func(c *Config) { c.MaxJudgeListings = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestRelevanceVerdict_Keeps(t *testing.T) {
	v := &RelevanceVerdict{KeepIDs: []string{"amazon:1", "temu:3"}}
	assert.True(t, v.Keeps("temu:3"))
	assert.False(t, v.Keeps("walmart:1"))

	var empty *RelevanceVerdict
	assert.False(t, empty.Keeps("amazon:1"))
}

func TestCategories(t *testing.T) {
	assert.True(t, IsCategory("electronics"))
	assert.False(t, IsCategory("spaceships"))
	for _, c := range BrowseCategories {
		require.True(t, IsCategory(c), c)
	}
}
