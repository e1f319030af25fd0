package search

import (
	"strings"
	"time"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/fraud"
	"github.com/poiesic/cartwise/ranking"
)

// Request is one search as the user asked for it.
type Request struct {
	Query   string      `json:"query"`
	Page    int         `json:"page"`
	Market  core.Market `json:"market"`
	Zipcode string      `json:"zipcode,omitempty"`
	// PriceSpeedBalance in [0,100] shifts weight between price and speed; nil keeps the defaults.
	PriceSpeedBalance *float64 `json:"priceSpeedBalance,omitempty"`
	// Memberships lists the active membership program ids.
	Memberships []string `json:"memberships,omitempty"`
	// RequestID is generated when empty.
	RequestID string `json:"requestId,omitempty"`
}

func (r Request) normalized() Request {
	r.Query = strings.Join(strings.Fields(r.Query), " ")
	if r.Page < 1 {
		r.Page = 1
	}
	r.Market = core.ParseMarket(string(r.Market))
	r.Zipcode = strings.TrimSpace(r.Zipcode)
	return r
}

// Response is the outcome of one search. It is always well formed: slices are
// never nil, and a failed or empty search has zero counts.
type Response struct {
	RequestID           string                `json:"requestId"`
	Query               string                `json:"query"`
	Page                int                   `json:"page"`
	Market              core.Market           `json:"market"`
	Listings            []core.ScoredListing  `json:"listings"`
	TotalCount          int                   `json:"totalCount"`
	DomesticCount       int                   `json:"domesticCount"`
	InternationalCount  int                   `json:"internationalCount"`
	AxisSummary         ranking.AxisSummary   `json:"axisSummary"`
	ProviderStatus      []core.ProviderStatus `json:"providerStatus"`
	FraudStats          fraud.Stats           `json:"fraudStats"`
	Analysis            *core.QueryAnalysis   `json:"analysis,omitempty"`
	SuggestedCategories []string              `json:"suggestedCategories,omitempty"`
	Weights             ranking.Weights       `json:"weights"`
	Memberships         []string              `json:"memberships,omitempty"`
	Refined             bool                  `json:"refined"`
	FromCache           bool                  `json:"fromCache"`
	Steps               []Step                `json:"steps,omitempty"`
	Duration            time.Duration         `json:"duration"`
}

func newResponse(req Request) *Response {
	return &Response{
		RequestID:      req.RequestID,
		Query:          req.Query,
		Page:           req.Page,
		Market:         req.Market,
		Listings:       []core.ScoredListing{},
		ProviderStatus: []core.ProviderStatus{},
		FraudStats:     fraud.Stats{ByRule: map[string]int{}},
		Weights:        ranking.DefaultWeights(),
	}
}
