package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/storage"
)

const (
	DefaultPoolSize     = 4
	DefaultWriteTimeout = 5 * time.Second
)

// DispatcherStats counts what happened to recorded logs.
type DispatcherStats struct {
	Stored  int64 `json:"stored"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Dispatcher persists request logs asynchronously.
type Dispatcher struct {
	repo         storage.RequestLogRepository
	pool         *ants.Pool
	writeTimeout time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	stored  atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

var _ Sink = (*Dispatcher)(nil)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherConfig) error

type dispatcherConfig struct {
	poolSize     int
	writeTimeout time.Duration
	logger       *slog.Logger
}

// WithPoolSize sets the number of concurrent writers.
// Default is 4.
func WithPoolSize(size int) DispatcherOption {
	return func(c *dispatcherConfig) error {
		if size < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidPoolSize, size)
		}
		c.poolSize = size
		return nil
	}
}

// WithWriteTimeout bounds each repository write.
// Default is 5s.
func WithWriteTimeout(d time.Duration) DispatcherOption {
	return func(c *dispatcherConfig) error {
		if d > 0 {
			c.writeTimeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(c *dispatcherConfig) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewDispatcher creates a dispatcher writing to repo.
func NewDispatcher(repo storage.RequestLogRepository, opts ...DispatcherOption) (*Dispatcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	cfg := dispatcherConfig{
		poolSize:     DefaultPoolSize,
		writeTimeout: DefaultWriteTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(cfg.poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		repo:         repo,
		pool:         pool,
		writeTimeout: cfg.writeTimeout,
		logger:       cfg.logger.With("component", "analytics-dispatcher"),
	}, nil
}

// Record queues log for persistence. It never blocks: when every writer is
// busy, or the dispatcher is closed, the log is dropped with a warning.
func (d *Dispatcher) Record(log core.RequestLog) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(log, "dispatcher closed")
		return
	}

	d.inflight.Add(1)
	err := d.pool.Submit(func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
		defer cancel()
		if _, err := d.repo.AddRequestLogs(ctx, &log); err != nil {
			d.failed.Add(1)
			d.logger.Warn("failed to persist request log", "requestId", log.RequestID, "err", err)
			return
		}
		d.stored.Add(1)
	})
	if err != nil {
		d.inflight.Done()
		d.drop(log, err.Error())
	}
}

func (d *Dispatcher) drop(log core.RequestLog, reason string) {
	d.dropped.Add(1)
	d.logger.Warn("dropping request log", "requestId", log.RequestID, "reason", reason)
}

// Stats returns the running counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Stored:  d.stored.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}

// Close waits for queued writes to finish and releases the worker pool.
// Logs recorded after Close are dropped. The repository is not closed.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()
	d.pool.Release()
	return nil
}
