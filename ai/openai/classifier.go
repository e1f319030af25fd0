package openai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
	"github.com/tmc/langchaingo/llms"
)

// IntentClassifier implements ai.IntentClassifier using OpenAI-compatible chat APIs.
type IntentClassifier struct {
	client llms.Model
	logger *slog.Logger
}

// intentResponse matches the JSON the model is asked to produce.
type intentResponse struct {
	Intent              string            `json:"intent"`
	Category            string            `json:"category"`
	RetailerQueries     map[string]string `json:"retailer_queries"`
	AlternateQuery      string            `json:"alternate_query"`
	MinPrice            *float64          `json:"min_price"`
	MaxPrice            *float64          `json:"max_price"`
	Attributes          map[string]string `json:"attributes"`
	Strategy            string            `json:"strategy"`
	Confidence          *float64          `json:"confidence"`
	SuggestedCategories []string          `json:"suggested_categories"`
}

func newIntentClassifier(config *ai.Config) (*IntentClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config, config.ClassifierModel)
	if err != nil {
		return nil, err
	}
	return &IntentClassifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewIntentClassifier creates a classifier using the provided configuration.
//
// Returns ai.IntentClassifier interface to enforce abstraction.
func NewIntentClassifier(config *ai.Config) (ai.IntentClassifier, error) {
	return newIntentClassifier(config)
}

// ClassifyIntent asks the model to analyze query.
// Answers that fail validation are reported as ai.ErrMalformedResponse.
func (c *IntentClassifier) ClassifyIntent(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	var resp intentResponse
	if err := generateJSON(ctx, c.client, c.logger, buildIntentPrompt(), sanitize(query), &resp); err != nil {
		return nil, err
	}

	a, err := toAnalysis(query, &resp)
	if err != nil {
		c.logger.Warn("discarding classifier answer", "query", query, "err", err)
		return nil, err
	}
	c.logger.Debug("classified query",
		"query", query,
		"intent", a.Intent,
		"category", a.Category,
		"confidence", a.Confidence)
	return a, nil
}

// toAnalysis converts a model answer into a validated analysis. Unknown
// retailers and categories are dropped; a missing confidence or an unknown
// intent makes the whole answer malformed.
func toAnalysis(query string, r *intentResponse) (*core.QueryAnalysis, error) {
	if r.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ai.ErrMalformedResponse)
	}

	a := &core.QueryAnalysis{
		Original:       strings.TrimSpace(query),
		Intent:         core.Intent(strings.ToLower(strings.TrimSpace(r.Intent))),
		AlternateQuery: strings.TrimSpace(r.AlternateQuery),
		MinPrice:       r.MinPrice,
		MaxPrice:       r.MaxPrice,
		Attributes:     r.Attributes,
		Strategy:       r.Strategy,
		Confidence:     *r.Confidence,
	}
	if a.Strategy == "" {
		a.Strategy = "llm"
	}
	if category := strings.ToLower(strings.TrimSpace(r.Category)); ai.IsCategory(category) {
		a.Category = category
	}
	for _, c := range r.SuggestedCategories {
		c = strings.ToLower(strings.TrimSpace(c))
		if ai.IsCategory(c) && !slices.Contains(a.SuggestedCategories, c) {
			a.SuggestedCategories = append(a.SuggestedCategories, c)
		}
	}
	if a.Intent == core.IntentQuestion && len(a.SuggestedCategories) == 0 {
		a.SuggestedCategories = slices.Clone(ai.BrowseCategories)
	}

	for name, q := range r.RetailerQueries {
		retailer, ok := core.ParseRetailer(name)
		if !ok || strings.TrimSpace(q) == "" {
			continue
		}
		if a.RetailerQueries == nil {
			a.RetailerQueries = make(map[core.Retailer]string)
		}
		a.RetailerQueries[retailer] = strings.TrimSpace(q)
	}

	if a.MinPrice != nil && a.MaxPrice != nil && *a.MinPrice > *a.MaxPrice {
		a.MinPrice, a.MaxPrice = nil, nil
	}

	if err := core.ValidateAnalysis(a); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return a, nil
}
