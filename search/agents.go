package search

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/ai/keyword"
	"github.com/poiesic/cartwise/core"
)

// withDeadline runs fn under a hard deadline. When the deadline passes the
// call is abandoned and ctx's error returned, even if fn ignores its context.
func withDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("agent panic: %v", p)
			}
			done <- r
		}()
		r.v, r.err = fn(ctx)
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// classify resolves the intent of query. It always returns a usable analysis:
// when the agent is disabled, fails, times out or answers garbage, the
// keyword classifier decides.
func (s *Searcher) classify(ctx context.Context, query string, trace *Trace) *core.QueryAnalysis {
	start := time.Now()
	fallback := keyword.Analyze(query)

	if s.classifier != nil && s.policy.ShouldClassify(query) {
		trace.AgentCalls++
		a, err := withDeadline(ctx, s.policy.IntentTimeout, func(ctx context.Context) (*core.QueryAnalysis, error) {
			return s.classifier.ClassifyIntent(ctx, query)
		})
		if err == nil {
			err = core.ValidateAnalysis(a)
		}
		if err == nil {
			if a.Original == "" {
				a.Original = query
			}
			if a.AlternateQuery == "" {
				a.AlternateQuery = fallback.AlternateQuery
			}
			trace.IntentSource = SourceAgent
			trace.record("intent", start, string(a.Intent))
			return a
		}
		trace.AgentFailures++
		s.logger.Warn("intent classification failed, using keyword fallback", "query", query, "err", err)
	}

	trace.IntentSource = SourceKeyword
	trace.record("intent", start, string(fallback.Intent))
	return fallback
}

// judgeRelevance asks the relevance judge which listings to keep. Any failure
// keeps the set unchanged, and so does a verdict that would empty it.
func (s *Searcher) judgeRelevance(ctx context.Context, req Request, query string, listings []core.Listing, trace *Trace, monitor SearchMonitor) []core.Listing {
	if s.judge == nil || !s.policy.ShouldJudge(req.Page, len(listings)) {
		return listings
	}
	start := time.Now()
	trace.AgentCalls++

	input := make([]core.Listing, len(listings))
	for i, l := range listings {
		input[i] = l.Clone()
	}
	verdict, err := withDeadline(ctx, s.policy.RelevanceTimeout, func(ctx context.Context) (*ai.RelevanceVerdict, error) {
		return s.judge.JudgeRelevance(ctx, query, input)
	})
	if err != nil {
		trace.AgentFailures++
		trace.record("relevance", start, "skipped")
		s.logger.Warn("relevance judge failed, keeping all listings", "query", query, "err", err)
		return listings
	}

	kept := make([]core.Listing, 0, len(listings))
	for _, l := range listings {
		if verdict.Keeps(l.ID) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		trace.record("relevance", start, "reverted")
		s.logger.Warn("relevance judge removed every listing, reverting", "query", query, "count", len(listings))
		monitor.AfterRelevance(len(listings), len(listings), true)
		return listings
	}

	trace.RelevanceApplied = true
	trace.record("relevance", start, fmt.Sprintf("kept %d of %d", len(kept), len(listings)))
	monitor.AfterRelevance(len(listings), len(kept), false)
	return kept
}
