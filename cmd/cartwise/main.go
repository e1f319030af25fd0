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

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/cartwise"
	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/cache"
	"github.com/poiesic/cartwise/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cartwise",
		Usage: "Shopping search across retailers with landed-cost ranking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"CARTWISE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file if it exists",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(c.String("env-file")); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search every retailer and print the ranked listings",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Result page",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "market",
						Usage: "Market scope (all, domestic, global)",
						Value: "all",
					},
					&cli.StringFlag{
						Name:    "zip",
						Usage:   "Destination zipcode for landed cost",
						EnvVars: []string{"CARTWISE_ZIP"},
					},
					&cli.Float64Flag{
						Name:  "balance",
						Usage: "Price/speed balance from 0 (price) to 100 (speed)",
					},
					&cli.StringSliceFlag{
						Name:    "membership",
						Aliases: []string{"m"},
						Usage:   "Active membership program id (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full response as JSON",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Listings to print in table mode",
						Value: 20,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the search API over HTTP",
				Action: serveCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"CARTWISE_ADDR"},
					},
				),
			},
			{
				Name:   "logs",
				Usage:  "Print recent request logs",
				Action: logsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the request-log database directory",
						EnvVars:  []string{"CARTWISE_LOG_DB"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of logs to print",
						Value: 20,
					},
					&cli.DurationFlag{
						Name:  "prune-older-than",
						Usage: "Delete logs older than this before printing",
					},
				},
			},
			{
				Name:   "memberships",
				Usage:  "List the membership programs",
				Action: membershipsCommand,
			},
		},
	}
}

// engineFlags are shared by the commands that build an engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the request-log database directory (empty keeps logs in memory)",
			EnvVars: []string{"CARTWISE_LOG_DB"},
		},
		&cli.StringFlag{
			Name:    "gateways",
			Usage:   "Retailer connectors (static, http)",
			Value:   string(cartwise.GatewaysStatic),
			EnvVars: []string{"CARTWISE_GATEWAYS"},
		},
		&cli.StringFlag{
			Name:    "gateway-urls",
			Usage:   "Comma-separated retailer=url pairs for http gateways",
			EnvVars: []string{"CARTWISE_GATEWAY_URLS"},
		},
		&cli.DurationFlag{
			Name:    "provider-timeout",
			Usage:   "Timeout of one retailer call",
			Value:   search.DefaultProviderTimeout,
			EnvVars: []string{"CARTWISE_PROVIDER_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Concurrent retailer calls across all requests",
			Value: search.DefaultPoolSize,
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "OpenAI-compatible API host; empty uses the keyword classifier only",
			EnvVars: []string{"CARTWISE_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "ai-key",
			Usage:   "API key for the AI host",
			EnvVars: []string{"CARTWISE_AI_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "classifier-model",
			Usage:   "Model used for intent classification",
			Value:   ai.DefaultConfig().ClassifierModel,
			EnvVars: []string{"CARTWISE_CLASSIFIER_MODEL"},
		},
		&cli.StringFlag{
			Name:    "relevance-model",
			Usage:   "Model used for relevance judging (defaults to the classifier model)",
			EnvVars: []string{"CARTWISE_RELEVANCE_MODEL"},
		},
		&cli.IntFlag{
			Name:  "cache-size",
			Usage: "Result cache capacity (0 disables the cache)",
			Value: cache.DefaultCapacity,
		},
		&cli.DurationFlag{
			Name:  "cache-ttl",
			Usage: "Result cache entry lifetime",
			Value: cache.DefaultTTL,
		},
	}
}

// engineConfig maps the engine flags onto a cartwise.Config.
func engineConfig(c *cli.Context) (*cartwise.Config, error) {
	opts := []cartwise.ConfigOption{
		cartwise.WithLogPath(c.String("db")),
		cartwise.WithProviderTimeout(c.Duration("provider-timeout")),
		cartwise.WithPoolSize(c.Int("pool-size")),
	}

	switch mode := cartwise.GatewayMode(strings.ToLower(c.String("gateways"))); mode {
	case cartwise.GatewaysHTTP:
		urls, err := cartwise.ParseGatewayURLs(c.String("gateway-urls"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, cartwise.WithHTTPGateways(urls))
	case cartwise.GatewaysStatic:
		opts = append(opts, cartwise.WithStaticGateways())
	default:
		return nil, fmt.Errorf("%w: unknown gateway mode %q", cartwise.ErrInvalidConfig, mode)
	}

	if host := c.String("ai-host"); host != "" {
		opts = append(opts, cartwise.WithAI(ai.NewConfig(
			ai.WithHost(host),
			ai.WithAPIKey(c.String("ai-key")),
			ai.WithClassifierModel(c.String("classifier-model")),
			ai.WithRelevanceModel(c.String("relevance-model")),
		)))
	}

	if size := c.Int("cache-size"); size > 0 {
		opts = append(opts, cartwise.WithCache(size, c.Duration("cache-ttl")))
	} else {
		opts = append(opts, cartwise.WithoutCache())
	}

	cfg := cartwise.NewConfig(opts...)
	return cfg, cfg.Validate()
}

// loadEnv reads path into the environment. A missing file is not an error;
// variables already set win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
