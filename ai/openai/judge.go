package openai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
	"github.com/tmc/langchaingo/llms"
)

// RelevanceJudge implements ai.RelevanceJudge using OpenAI-compatible chat APIs.
type RelevanceJudge struct {
	client      llms.Model
	maxListings int
	logger      *slog.Logger
}

type removal struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// relevanceResponse matches the JSON the model is asked to produce.
type relevanceResponse struct {
	Keep    []string  `json:"keep"`
	Removed []removal `json:"removed"`
}

func newRelevanceJudge(config *ai.Config) (*RelevanceJudge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config, config.RelevanceModel)
	if err != nil {
		return nil, err
	}
	return &RelevanceJudge{
		client:      client,
		maxListings: config.MaxJudgeListings,
		logger:      slog.Default().With("component", "openai-judge"),
	}, nil
}

// NewRelevanceJudge creates a judge using the provided configuration.
//
// Returns ai.RelevanceJudge interface to enforce abstraction.
func NewRelevanceJudge(config *ai.Config) (ai.RelevanceJudge, error) {
	return newRelevanceJudge(config)
}

// JudgeRelevance asks the model which listings match query. Only the first
// MaxJudgeListings listings are judged; the rest are kept.
func (j *RelevanceJudge) JudgeRelevance(ctx context.Context, query string, listings []core.Listing) (*ai.RelevanceVerdict, error) {
	if len(listings) == 0 {
		return &ai.RelevanceVerdict{}, nil
	}

	judged := listings
	if len(judged) > j.maxListings {
		judged = listings[:j.maxListings]
	}

	var resp relevanceResponse
	if err := generateJSON(ctx, j.client, j.logger, buildRelevancePrompt(query), formatListings(judged), &resp); err != nil {
		return nil, err
	}

	v, err := toVerdict(judged, &resp)
	if err != nil {
		j.logger.Warn("discarding relevance answer", "query", query, "err", err)
		return nil, err
	}
	for _, l := range listings[len(judged):] {
		v.KeepIDs = append(v.KeepIDs, l.ID)
	}

	j.logger.Debug("judged relevance",
		"query", query,
		"judged", len(judged),
		"kept", len(v.KeepIDs),
		"removed", len(v.RemovalReasons))
	return v, nil
}

// toVerdict keeps only ids that were actually sent. When the answer carries a
// keep list it is followed as written and unmentioned listings are dropped; an
// answer with only removals keeps everything it did not remove. A listing the
// model both kept and removed stays kept.
func toVerdict(judged []core.Listing, r *relevanceResponse) (*ai.RelevanceVerdict, error) {
	if r.Keep == nil && r.Removed == nil {
		return nil, fmt.Errorf("%w: neither keep nor removed present", ai.ErrMalformedResponse)
	}

	known := make(map[string]bool, len(judged))
	for _, l := range judged {
		known[l.ID] = true
	}

	keep := make(map[string]bool, len(r.Keep))
	for _, id := range r.Keep {
		if known[id] {
			keep[id] = true
		}
	}
	reasons := make(map[string]string)
	for _, rm := range r.Removed {
		if known[rm.ID] && !keep[rm.ID] {
			reasons[rm.ID] = rm.Reason
		}
	}

	v := &ai.RelevanceVerdict{RemovalReasons: reasons}
	for _, l := range judged {
		if slices.Contains(v.KeepIDs, l.ID) {
			continue
		}
		_, removed := reasons[l.ID]
		if keep[l.ID] || (r.Keep == nil && !removed) {
			v.KeepIDs = append(v.KeepIDs, l.ID)
		}
	}
	return v, nil
}
