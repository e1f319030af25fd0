package ai

import (
	"context"

	"github.com/poiesic/cartwise/core"
)

// IntentClassifier resolves what a free-text shopping query is asking for.
// Implementations must be thread-safe for concurrent use.
type IntentClassifier interface {
	// ClassifyIntent analyzes query and returns its intent, category,
	// per-retailer query strings and price bounds.
	// Returns an error if classification fails or the answer is unusable.
	ClassifyIntent(ctx context.Context, query string) (*core.QueryAnalysis, error)
}

// RelevanceJudge decides which listings actually match a query.
// Implementations must be thread-safe for concurrent use.
type RelevanceJudge interface {
	// JudgeRelevance returns the ids of the listings worth keeping and a reason
	// for each dropped one. Ids not present in listings must not be returned.
	JudgeRelevance(ctx context.Context, query string, listings []core.Listing) (*RelevanceVerdict, error)
}

// RelevanceVerdict is the answer of a RelevanceJudge.
type RelevanceVerdict struct {
	// KeepIDs lists the listings to keep, in any order.
	KeepIDs []string

	// RemovalReasons maps dropped listing ids to a short explanation.
	RemovalReasons map[string]string
}

// Keeps reports whether the verdict keeps the listing with the given id.
func (v *RelevanceVerdict) Keeps(id string) bool {
	if v == nil {
		return false
	}
	for _, k := range v.KeepIDs {
		if k == id {
			return true
		}
	}
	return false
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages IntentClassifier and RelevanceJudge instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// IntentClassifier returns the query classification service.
	// The returned IntentClassifier is safe for concurrent use.
	IntentClassifier() IntentClassifier

	// RelevanceJudge returns the relevance judging service.
	// The returned RelevanceJudge is safe for concurrent use.
	RelevanceJudge() RelevanceJudge

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
