// Package keyword implements a deterministic intent classifier.
//
// It needs no network and answers instantly, so it serves both as a
// standalone classifier and as the fallback when a model-backed classifier
// times out, fails or returns something unusable.
package keyword

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/cartwise/ai"
	"github.com/poiesic/cartwise/core"
)

// Strategy is the QueryAnalysis.Strategy tag of keyword analyses.
const Strategy = "keyword"

var (
	betweenRegexp  = regexp.MustCompile(`between\s*\$?(\d+(?:\.\d+)?)\s*(?:and|to|-)\s*\$?(\d+(?:\.\d+)?)`)
	rangeRegexp    = regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s*(?:-|to)\s*\$?(\d+(?:\.\d+)?)`)
	maxPriceRegexp = regexp.MustCompile(`(?:^|\s)(?:under|below|less than|cheaper than|up to|max|<)\s*\$?(\d+(?:\.\d+)?)`)
	minPriceRegexp = regexp.MustCompile(`(?:^|\s)(?:over|above|more than|at least|min|>)\s*\$?(\d+(?:\.\d+)?)`)
	storageRegexp  = regexp.MustCompile(`\b(\d+)\s?(gb|tb)\b`)
)

// Classifier implements ai.IntentClassifier with keyword rules.
type Classifier struct {
	logger *slog.Logger
}

var _ ai.IntentClassifier = (*Classifier)(nil)

// New creates a keyword classifier.
func New() *Classifier {
	return &Classifier{logger: slog.Default().With("component", "keyword-classifier")}
}

// ClassifyIntent analyzes query. It only fails when ctx is already done.
func (c *Classifier) ClassifyIntent(ctx context.Context, query string) (*core.QueryAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a := Analyze(query)
	c.logger.Debug("classified query", "query", query, "intent", a.Intent, "category", a.Category)
	return a, nil
}

// Analyze is the pure classification function behind Classifier.
func Analyze(query string) *core.QueryAnalysis {
	normalized := normalize(query)
	a := &core.QueryAnalysis{
		Original:   strings.TrimSpace(query),
		Intent:     core.IntentProduct,
		Strategy:   Strategy,
		Confidence: 0.5,
	}
	if normalized == "" {
		return a
	}

	base := normalized
	if m := betweenRegexp.FindStringSubmatch(base); m != nil {
		a.MinPrice, a.MaxPrice = parsePrice(m[1]), parsePrice(m[2])
		base = strings.Replace(base, m[0], " ", 1)
	} else if m := rangeRegexp.FindStringSubmatch(base); m != nil {
		a.MinPrice, a.MaxPrice = parsePrice(m[1]), parsePrice(m[2])
		base = strings.Replace(base, m[0], " ", 1)
	}
	if m := maxPriceRegexp.FindStringSubmatch(base); m != nil && a.MaxPrice == nil {
		a.MaxPrice = parsePrice(m[1])
		base = strings.Replace(base, m[0], " ", 1)
	}
	if m := minPriceRegexp.FindStringSubmatch(base); m != nil && a.MinPrice == nil {
		a.MinPrice = parsePrice(m[1])
		base = strings.Replace(base, m[0], " ", 1)
	}
	base = normalize(base)

	tokens := tokenize(base)
	a.Category = detectCategory(base, tokens)
	a.Attributes = attributes(base, tokens)

	if a.Category == "" && looksLikeBrowsing(normalized, tokens) {
		a.Intent = core.IntentQuestion
		a.Confidence = 0.6
		a.SuggestedCategories = slices.Clone(ai.BrowseCategories)
		return a
	}
	if a.Category != "" {
		a.Confidence = 0.7
		a.SuggestedCategories = []string{a.Category}
	}

	if base != "" && base != normalized {
		a.RetailerQueries = make(map[core.Retailer]string, len(core.Retailers))
		for _, r := range core.Retailers {
			a.RetailerQueries[r] = base
		}
	}
	a.AlternateQuery = alternate(base)
	return a
}

// alternate derives a broader query for refinement. The result equals base
// when no broader wording is known.
func alternate(base string) string {
	kept := make([]string, 0)
	for _, t := range strings.Fields(base) {
		if !fillerWords[t] {
			kept = append(kept, t)
		}
	}
	if alt := strings.Join(kept, " "); alt != "" && alt != base {
		return alt
	}
	for i, t := range kept {
		if syn, ok := synonyms[t]; ok {
			out := slices.Clone(kept)
			out[i] = syn
			return strings.Join(out, " ")
		}
	}
	if len(kept) >= 3 {
		return strings.Join(kept[1:], " ")
	}
	return base
}

func detectCategory(text string, tokens []string) string {
	best, bestHits := "", 0
	for _, category := range ai.Categories {
		hits := 0
		for _, term := range categoryTerms[category] {
			if matches(text, tokens, term) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = category, hits
		}
	}
	return best
}

func matches(text string, tokens []string, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+text+" ", " "+term+" ")
	}
	for _, t := range tokens {
		if t == term || t == term+"s" || t == term+"es" {
			return true
		}
	}
	return false
}

func looksLikeBrowsing(text string, tokens []string) bool {
	if len(tokens) > 0 && questionStarts[tokens[0]] {
		return true
	}
	if strings.HasSuffix(text, "?") {
		return true
	}
	for _, p := range browsePhrases {
		if matches(text, tokens, p) {
			return true
		}
	}
	return false
}

func attributes(text string, tokens []string) map[string]string {
	attrs := make(map[string]string)
	for _, c := range colors {
		if slices.Contains(tokens, c) {
			attrs["color"] = c
			break
		}
	}
	if m := storageRegexp.FindStringSubmatch(text); m != nil {
		attrs["storage"] = m[1] + strings.ToUpper(m[2])
	}
	if slices.Contains(tokens, "wireless") || slices.Contains(tokens, "bluetooth") {
		attrs["connectivity"] = "wireless"
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Trim(f, ".,!?;:'\"()[]{}"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return core.Float(v)
}
