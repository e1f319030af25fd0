// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"fmt"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL of the OpenAI-compatible chat API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// APIKey is sent as the bearer token. Local servers accept any value.
	APIKey string

	// ClassifierModel is the model identifier used for intent classification.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ClassifierModel string

	// RelevanceModel is the model identifier used for relevance judging.
	// Empty means ClassifierModel.
	RelevanceModel string

	// MaxJudgeListings caps how many listings are sent to the relevance judge
	// in one request. Listings past the cap are kept without judgment.
	// Default: 40
	MaxJudgeListings int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the chat API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithClassifierModel sets the intent classification model identifier.
func WithClassifierModel(model string) ConfigOption {
	return func(c *Config) {
		c.ClassifierModel = model
	}
}

// WithRelevanceModel sets the relevance judging model identifier.
func WithRelevanceModel(model string) ConfigOption {
	return func(c *Config) {
		c.RelevanceModel = model
	}
}

// WithMaxJudgeListings sets how many listings one relevance request may carry.
func WithMaxJudgeListings(n int) ConfigOption {
	return func(c *Config) {
		c.MaxJudgeListings = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Host:             "http://localhost:11434/v1",
		APIKey:           "none",
		ClassifierModel:  "qwen2.5:3b",
		MaxJudgeListings: 40,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithClassifierModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing and defaults the relevance
// model to the classifier model.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.RelevanceModel == "" {
		c.RelevanceModel = c.ClassifierModel
	}
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return fmt.Errorf("%w: Host is required", ErrInvalidConfig)
	}
	if c.ClassifierModel == "" {
		return fmt.Errorf("%w: ClassifierModel is required", ErrInvalidConfig)
	}
	if c.MaxJudgeListings < 1 {
		return fmt.Errorf("%w: MaxJudgeListings must be positive", ErrInvalidConfig)
	}
	return nil
}
