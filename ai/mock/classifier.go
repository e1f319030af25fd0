package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/cartwise/ai/keyword"
	"github.com/poiesic/cartwise/core"
)

// MockIntentClassifier is a test double for ai.IntentClassifier.
// It allows custom behavior injection via function fields.
type MockIntentClassifier struct {
	// ClassifyIntentFunc is called by ClassifyIntent if set.
	// If nil, uses the keyword classifier.
	ClassifyIntentFunc func(ctx context.Context, query string) (*core.QueryAnalysis, error)

	callCount atomic.Int64
}

// NewMockIntentClassifier creates a mock classifier with default keyword behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockIntentClassifier() *MockIntentClassifier {
	return &MockIntentClassifier{}
}

// WithClassifyIntentFunc sets custom classification behavior.
func (m *MockIntentClassifier) WithClassifyIntentFunc(fn func(ctx context.Context, query string) (*core.QueryAnalysis, error)) *MockIntentClassifier {
	m.ClassifyIntentFunc = fn
	return m
}

// ClassifyIntent delegates to ClassifyIntentFunc or keyword.Analyze.
func (m *MockIntentClassifier) ClassifyIntent(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	m.callCount.Add(1)

	if m.ClassifyIntentFunc != nil {
		return m.ClassifyIntentFunc(ctx, query)
	}

	a := keyword.Analyze(query)
	a.Strategy = "mock"
	return a, nil
}

// CallCount returns the number of times ClassifyIntent was called.
func (m *MockIntentClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockIntentClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyIntentFunc = nil
}
