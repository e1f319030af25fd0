package storage

import (
	"context"
	"time"

	"github.com/poiesic/cartwise/core"
)

// RequestLogRepository persists per-request analytics records.
type RequestLogRepository interface {
	// AddRequestLogs stores one or more request logs.
	// Generates a new ID from sequence for every log.
	// Sets Timestamp to now if not already set.
	// Returns the logs with IDs populated.
	AddRequestLogs(ctx context.Context, logs ...*core.RequestLog) ([]*core.RequestLog, error)

	// GetRequestLog retrieves a single request log by ID.
	// Returns ErrNotFound if the log doesn't exist.
	GetRequestLog(ctx context.Context, id core.ID) (*core.RequestLog, error)

	// GetRequestLogsByDateRange retrieves logs where start <= Timestamp < end,
	// ordered by timestamp.
	GetRequestLogsByDateRange(ctx context.Context, start, end time.Time) ([]*core.RequestLog, error)

	// GetRecentRequestLogs retrieves the N most recent logs, most recent first.
	GetRecentRequestLogs(ctx context.Context, limit int) ([]*core.RequestLog, error)

	// DeleteRequestLogsBefore removes every log older than cutoff and returns
	// how many were removed.
	DeleteRequestLogsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases resources held by the repository. The backend stays open.
	Close() error
}
