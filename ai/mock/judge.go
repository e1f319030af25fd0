package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
)

// MockRelevanceJudge is a test double for ai.RelevanceJudge.
// It allows custom behavior injection via function fields.
type MockRelevanceJudge struct {
	// JudgeRelevanceFunc is called by JudgeRelevance if set.
	// If nil, every listing is kept.
	JudgeRelevanceFunc func(ctx context.Context, query string, listings []core.Listing) (*ai.RelevanceVerdict, error)

	callCount atomic.Int64
}

// NewMockRelevanceJudge creates a mock judge that keeps everything.
// Note: Returns concrete type to allow test assertions.
func NewMockRelevanceJudge() *MockRelevanceJudge {
	return &MockRelevanceJudge{}
}

// WithJudgeRelevanceFunc sets custom judging behavior.
func (m *MockRelevanceJudge) WithJudgeRelevanceFunc(fn func(ctx context.Context, query string, listings []core.Listing) (*ai.RelevanceVerdict, error)) *MockRelevanceJudge {
	m.JudgeRelevanceFunc = fn
	return m
}

// JudgeRelevance delegates to JudgeRelevanceFunc or keeps every listing.
func (m *MockRelevanceJudge) JudgeRelevance(ctx context.Context, query string, listings []core.Listing) (*ai.RelevanceVerdict, error) {
	m.callCount.Add(1)

	if m.JudgeRelevanceFunc != nil {
		return m.JudgeRelevanceFunc(ctx, query, listings)
	}

	keep := make([]string, len(listings))
	for i, l := range listings {
		keep[i] = l.ID
	}
	return &ai.RelevanceVerdict{KeepIDs: keep}, nil
}

// CallCount returns the number of times JudgeRelevance was called.
func (m *MockRelevanceJudge) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockRelevanceJudge) Reset() {
	m.callCount.Store(0)
	m.JudgeRelevanceFunc = nil
}
