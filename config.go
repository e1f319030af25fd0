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

package cartwise

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/cache"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/search"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// GatewayMode selects where retailer listings come from.
type GatewayMode string

const (
	// GatewaysStatic serves generated catalogs without network access.
	GatewaysStatic GatewayMode = "static"
	// GatewaysHTTP calls one JSON search endpoint per retailer.
	GatewaysHTTP GatewayMode = "http"
)

// Config holds everything NewEngine needs.
type Config struct {
	// LogPath is the directory of the request-log database.
	// Empty keeps request logs in memory.
	LogPath string

	// Gateways selects the retailer connectors.
	// Default: GatewaysStatic
	Gateways GatewayMode

	// GatewayURLs maps each retailer to its search endpoint when Gateways is GatewaysHTTP.
	GatewayURLs map[core.Retailer]string

	// ProviderTimeout bounds one retailer call.
	// Default: 12s
	ProviderTimeout time.Duration

	// PoolSize caps concurrent retailer calls across all requests.
	// Default: 64
	PoolSize int

	// AI configures the external intent classifier and relevance judge.
	// Nil runs on the keyword classifier alone.
	AI *ai.Config

	// CacheCapacity and CacheTTL size the result cache.
	// Defaults: 100 entries, 5 minutes
	CacheCapacity int
	CacheTTL      time.Duration
	CacheDisabled bool

	// AnalyticsWorkers is the number of request-log writers.
	// Default: 4
	AnalyticsWorkers int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithLogPath stores request logs under path.
func WithLogPath(path string) ConfigOption {
	return func(c *Config) {
		c.LogPath = path
	}
}

// WithStaticGateways serves generated catalogs.
func WithStaticGateways() ConfigOption {
	return func(c *Config) {
		c.Gateways = GatewaysStatic
		c.GatewayURLs = nil
	}
}

// WithHTTPGateways calls the given retailer endpoints.
func WithHTTPGateways(urls map[core.Retailer]string) ConfigOption {
	return func(c *Config) {
		c.Gateways = GatewaysHTTP
		c.GatewayURLs = urls
	}
}

// WithProviderTimeout sets the per-call retailer timeout.
func WithProviderTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ProviderTimeout = d
	}
}

// WithPoolSize sets how many retailer calls may run at once.
func WithPoolSize(n int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithAI enables the external agents.
func WithAI(cfg *ai.Config) ConfigOption {
	return func(c *Config) {
		c.AI = cfg
	}
}

// WithKeywordOnly disables the external agents.
func WithKeywordOnly() ConfigOption {
	return func(c *Config) {
		c.AI = nil
	}
}

// WithCache sizes the result cache.
func WithCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheCapacity = capacity
		c.CacheTTL = ttl
		c.CacheDisabled = false
	}
}

// WithoutCache disables the result cache.
func WithoutCache() ConfigOption {
	return func(c *Config) {
		c.CacheDisabled = true
	}
}

// WithAnalyticsWorkers sets the number of request-log writers.
func WithAnalyticsWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.AnalyticsWorkers = n
	}
}

// DefaultConfig returns a Config that runs offline: static gateways, the
// keyword classifier and in-memory request logs.
func DefaultConfig() *Config {
	return &Config{
		Gateways:         GatewaysStatic,
		ProviderTimeout:  search.DefaultProviderTimeout,
		PoolSize:         search.DefaultPoolSize,
		CacheCapacity:    cache.DefaultCapacity,
		CacheTTL:         cache.DefaultTTL,
		AnalyticsWorkers: 4,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	switch c.Gateways {
	case GatewaysStatic:
	case GatewaysHTTP:
		if len(c.GatewayURLs) == 0 {
			return fmt.Errorf("%w: http gateways need at least one retailer URL", ErrInvalidConfig)
		}
		for r, u := range c.GatewayURLs {
			if !r.Valid() {
				return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, core.ErrUnknownRetailer, r)
			}
			parsed, err := url.Parse(u)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("%w: bad URL for %s: %q", ErrInvalidConfig, r, u)
			}
		}
	default:
		return fmt.Errorf("%w: unknown gateway mode %q", ErrInvalidConfig, c.Gateways)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: provider timeout must be positive", ErrInvalidConfig)
	}
	if c.PoolSize < 1 || c.AnalyticsWorkers < 1 {
		return fmt.Errorf("%w: pool sizes must be positive", ErrInvalidConfig)
	}
	if !c.CacheDisabled && (c.CacheCapacity < 1 || c.CacheTTL <= 0) {
		return fmt.Errorf("%w: cache capacity and ttl must be positive", ErrInvalidConfig)
	}
	if c.AI != nil {
		if err := c.AI.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ParseGatewayURLs reads "retailer=url" pairs separated by commas, as used
// by the command line and environment.
func ParseGatewayURLs(s string) (map[core.Retailer]string, error) {
	out := make(map[core.Retailer]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, u, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected retailer=url, got %q", ErrInvalidConfig, pair)
		}
		r, ok := core.ParseRetailer(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, core.ErrUnknownRetailer, name)
		}
		out[r] = strings.TrimSpace(u)
	}
	return out, nil
}
