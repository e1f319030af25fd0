// Package fraud classifies retailer listings as clean, flagged or removed.
//
// Remove rules drop a listing on the first match: unusable prices, placeholder
// images, stub titles, sponsored placements and marketplace bait. Flag rules
// keep the listing but annotate it: prices far under the result set's median,
// low seller trust, brand typosquatting and cross-border material claims. The
// ranking engine turns flags into a score penalty.
//
// Which rules apply is scoped per retailer through an explicit allow-list keyed
// by core.Retailer.
package fraud

import (
	"log/slog"
	"slices"

	"github.com/poiesic/cartwise/core"
)

// Removal records a dropped listing and the rule that dropped it.
type Removal struct {
	Listing core.Listing
	Rule    string
}

// Stats summarizes one filter run.
type Stats struct {
	Total       int            `json:"total"`
	Clean       int            `json:"clean"`
	Flagged     int            `json:"flagged"`
	Removed     int            `json:"removed"`
	ByRule      map[string]int `json:"byRule"`
	MedianPrice float64        `json:"medianPrice"`
}

// Result partitions the input. Kept holds clean and flagged listings in input order.
type Result struct {
	Clean   []core.Listing
	Flagged []core.Listing
	Removed []Removal
	Kept    []core.Listing
	Stats   Stats
}

// Filter is the rule-based fraud classifier. It is stateless and safe for concurrent use.
type Filter struct {
	logger *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
	}
}

// NewFilter creates a fraud filter.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{logger: slog.Default().With("component", "fraud-filter")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply classifies listings. The input slice and its listings are not modified;
// kept listings are copies carrying their fraud flags.
func (f *Filter) Apply(listings []core.Listing) Result {
	res := Result{Stats: Stats{Total: len(listings), ByRule: make(map[string]int)}}

	survivors := make([]core.Listing, 0, len(listings))
	for _, l := range listings {
		l = l.Clone()
		l.FraudFlags = nil
		if rule := firstRemoveMatch(&l); rule != "" {
			res.Removed = append(res.Removed, Removal{Listing: l, Rule: rule})
			res.Stats.ByRule[rule]++
			continue
		}
		for _, rule := range flagRules {
			if appliesTo(rule.id, l.Retailer) && rule.match(&l) {
				l.FraudFlags = append(l.FraudFlags, rule.id)
			}
		}
		survivors = append(survivors, l)
	}

	median, below := belowMedian(survivors)
	res.Stats.MedianPrice = median
	for i := range survivors {
		if below[i] {
			survivors[i].FraudFlags = append(survivors[i].FraudFlags, RuleBelowMedian)
		}
		for _, flag := range survivors[i].FraudFlags {
			res.Stats.ByRule[flag]++
		}
		if len(survivors[i].FraudFlags) == 0 {
			res.Clean = append(res.Clean, survivors[i])
		} else {
			res.Flagged = append(res.Flagged, survivors[i])
		}
	}
	res.Kept = survivors
	res.Stats.Clean = len(res.Clean)
	res.Stats.Flagged = len(res.Flagged)
	res.Stats.Removed = len(res.Removed)

	f.logger.Debug("fraud filter applied",
		"total", res.Stats.Total,
		"clean", res.Stats.Clean,
		"flagged", res.Stats.Flagged,
		"removed", res.Stats.Removed,
		"median", median)
	return res
}

func firstRemoveMatch(l *core.Listing) string {
	for _, rule := range removeRules {
		if appliesTo(rule.id, l.Retailer) && rule.match(l) {
			return rule.id
		}
	}
	return ""
}

// belowMedian marks listings priced under MedianFraction of the median price
// of every listing that survived the remove rules, flagged ones included. The
// median is taken once. Sets smaller than minMedianSample are not compared.
func belowMedian(survivors []core.Listing) (float64, []bool) {
	below := make([]bool, len(survivors))
	prices := make([]float64, len(survivors))
	for i, l := range survivors {
		prices[i] = l.ParsedPrice
	}
	median := Median(prices)
	if len(survivors) < minMedianSample {
		return median, below
	}
	threshold := median * MedianFraction
	for i, p := range prices {
		below[i] = p < threshold
	}
	return median, below
}

// Median returns the true median of prices: the middle value of an odd-sized set
// or the mean of the two middle values of an even-sized one. It returns 0 for an
// empty set and does not reorder its argument.
func Median(prices []float64) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
