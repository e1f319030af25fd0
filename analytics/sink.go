package analytics

import (
	"context"
	"log/slog"

	"github.com/poiesic/cartwise/core"
)

// Sink receives request logs. Record must return promptly and must not panic.
// The sink takes ownership of the log.
type Sink interface {
	Record(log core.RequestLog)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(log core.RequestLog)

func (f SinkFunc) Record(log core.RequestLog) { f(log) }

// Discard drops every log.
var Discard Sink = SinkFunc(func(core.RequestLog) {})

// LogSink writes each request log as one structured log record.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink creates a LogSink writing at level. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "analytics"), level: level}
}

func (s *LogSink) Record(log core.RequestLog) {
	providers := make([]any, 0, len(log.Providers))
	for _, p := range log.Providers {
		providers = append(providers, slog.Group(string(p.Retailer),
			"status", p.State, "count", p.Count, "latency", p.Latency))
	}
	s.logger.Log(context.Background(), s.level, "search request",
		"requestId", log.RequestID,
		"query", log.Query,
		"page", log.Page,
		"market", log.Market,
		"intent", log.Intent,
		"intentSource", log.IntentSource,
		slog.Group("providers", providers...),
		"fraudRemoved", log.FraudRemoved,
		"agentCalls", log.AgentCalls,
		"relevanceApplied", log.RelevanceApplied,
		"refined", log.Refined,
		"fromCache", log.FromCache,
		"results", log.ResultCount,
		"duration", log.Duration,
	)
}

// Multi fans a log out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(log core.RequestLog) {
		for _, s := range sinks {
			if s != nil {
				s.Record(log)
			}
		}
	})
}
