package cartwise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/ai/openai"
	"github.com/poiesic/cartwise/analytics"
	"github.com/poiesic/cartwise/cache"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
	"github.com/poiesic/cartwise/provider/httpjson"
	"github.com/poiesic/cartwise/provider/static"
	"github.com/poiesic/cartwise/search"
	"github.com/poiesic/cartwise/storage"
	"github.com/poiesic/cartwise/storage/badger"
)

// Engine wires the searcher to its gateways, agents and request-log store.
type Engine struct {
	backend    *badger.Backend
	logRepo    storage.RequestLogRepository
	dispatcher *analytics.Dispatcher
	provider   ai.AIProvider
	searcher   *search.Searcher
	logger     *slog.Logger
}

// NewEngine builds an engine from cfg. Extra search options are applied after
// the ones derived from cfg.
func NewEngine(cfg *Config, opts ...search.Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "engine")

	gateways, err := buildGateways(cfg)
	if err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(cfg.LogPath, cfg.LogPath == "")
	if err != nil {
		return nil, err
	}

	logRepo, err := badger.NewRequestLogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	dispatcher, err := analytics.NewDispatcher(logRepo, analytics.WithPoolSize(cfg.AnalyticsWorkers))
	if err != nil {
		logRepo.Close()
		backend.Close()
		return nil, err
	}

	searchOpts := []search.Option{
		search.WithPoolSize(cfg.PoolSize),
		search.WithProviderTimeout(cfg.ProviderTimeout),
		search.WithSink(analytics.Multi(dispatcher, analytics.NewLogSink(nil, slog.LevelDebug))),
	}
	if cfg.CacheDisabled {
		searchOpts = append(searchOpts, search.WithoutCache())
	} else {
		searchOpts = append(searchOpts, search.WithCacheOptions(cache.WithCapacity(cfg.CacheCapacity), cache.WithTTL(cfg.CacheTTL)))
	}

	var aiProvider ai.AIProvider
	if cfg.AI != nil {
		aiProvider, err = openai.NewProvider(cfg.AI)
		if err != nil {
			dispatcher.Close()
			logRepo.Close()
			backend.Close()
			return nil, err
		}
		searchOpts = append(searchOpts, search.WithAIProvider(aiProvider))
	}

	searcher, err := search.NewSearcher(gateways, append(searchOpts, opts...)...)
	if err != nil {
		if aiProvider != nil {
			aiProvider.Close()
		}
		dispatcher.Close()
		logRepo.Close()
		backend.Close()
		return nil, err
	}

	logger.Info("engine ready",
		"gateways", cfg.Gateways,
		"retailers", len(gateways),
		"agents", aiProvider != nil,
		"logPath", cfg.LogPath)

	return &Engine{
		backend:    backend,
		logRepo:    logRepo,
		dispatcher: dispatcher,
		provider:   aiProvider,
		searcher:   searcher,
		logger:     logger,
	}, nil
}

func buildGateways(cfg *Config) ([]provider.Gateway, error) {
	if cfg.Gateways == GatewaysStatic {
		return static.All(), nil
	}
	// Retailer order keeps fan-out statuses stable.
	var gateways []provider.Gateway
	for _, r := range core.Retailers {
		u, ok := cfg.GatewayURLs[r]
		if !ok {
			continue
		}
		g, err := httpjson.New(r, u, httpjson.WithTimeout(cfg.ProviderTimeout))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		gateways = append(gateways, g)
	}
	return gateways, nil
}

// Search runs one search.
func (e *Engine) Search(ctx context.Context, req search.Request) *search.Response {
	return e.searcher.Search(ctx, req)
}

// Searcher returns the underlying searcher.
func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

// RequestLogs returns the request-log repository.
func (e *Engine) RequestLogs() storage.RequestLogRepository {
	return e.logRepo
}

// AnalyticsStats reports how many request logs were stored, failed or dropped.
func (e *Engine) AnalyticsStats() analytics.DispatcherStats {
	return e.dispatcher.Stats()
}

// Memberships lists the membership programs requests may activate.
func (e *Engine) Memberships() []core.MembershipProgram {
	return slices.Clone(e.searcher.Catalog().Programs())
}

// Close stops the searcher, flushes pending request logs and closes storage.
func (e *Engine) Close() error {
	e.searcher.Release()

	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	// Pending writes need the repository open
	if err := e.dispatcher.Close(); err != nil {
		e.logger.Error("error closing analytics dispatcher", "err", err)
		errs = append(errs, err)
	}
	if err := e.logRepo.Close(); err != nil {
		e.logger.Error("error closing request log repository", "err", err)
		errs = append(errs, err)
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
