package ranking

import (
	"math"
	"strings"

	"github.com/poiesic/cartwise/core"
)

// retailerReputation is the baseline trust of a retailer, 0-100.
var retailerReputation = map[core.Retailer]float64{
	core.RetailerAmazon:     85,
	core.RetailerWalmart:    82,
	core.RetailerTarget:     84,
	core.RetailerBestBuy:    86,
	core.RetailerEbay:       70,
	core.RetailerAliExpress: 55,
	core.RetailerTemu:       50,
}

// returnPolicyScores rates how easy returns are, 0-100.
var returnPolicyScores = map[core.Retailer]float64{
	core.RetailerAmazon:     90,
	core.RetailerWalmart:    85,
	core.RetailerTarget:     88,
	core.RetailerBestBuy:    85,
	core.RetailerEbay:       60,
	core.RetailerAliExpress: 45,
	core.RetailerTemu:       50,
}

const (
	unknownRetailerScore = 50
	crossBorderReturnCut = 20
	// reviewsForFullConfidence is the review count at which ratings outweigh reputation most.
	reviewsForFullConfidence = 10000
)

// TrustSignal returns the listing's trust score, deriving one from rating,
// review volume and retailer reputation when the retailer reported none.
func TrustSignal(l core.Listing) float64 {
	if l.TrustScore != nil {
		return clamp(*l.TrustScore)
	}
	base := lookup(retailerReputation, l.Retailer)
	if l.Rating <= 0 || l.ReviewCount <= 0 {
		return base
	}
	ratingScore := clamp(l.Rating / 5 * 100)
	confidence := math.Min(1, math.Log10(float64(l.ReviewCount)+1)/math.Log10(reviewsForFullConfidence))
	// ratings can carry at most half of the weight
	w := 0.5 * confidence
	return clamp(base*(1-w) + ratingScore*w)
}

// ReturnPolicySignal scores the retailer's return policy; cross-border listings score lower.
func ReturnPolicySignal(l core.Listing) float64 {
	score := lookup(returnPolicyScores, l.Retailer)
	if l.IsInternational() {
		score -= crossBorderReturnCut
	}
	return clamp(score)
}

// MatchSignal estimates how well a listing matches the query, 0-100.
// Coverage of query words drives the score; an exact phrase match or the brand
// appearing in the query adds a bonus.
func MatchSignal(l core.Listing, query string) float64 {
	if strings.TrimSpace(query) == "" {
		return 50
	}
	score := queryCoverage(l.Name, query) * 85

	name := strings.ToLower(l.Name)
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if q != "" && strings.Contains(name, q) {
		score += 10
	}
	if brand := strings.ToLower(strings.TrimSpace(l.Brand)); brand != "" {
		for _, w := range tokenizeAndFilter(query) {
			if w == brand {
				score += 5
				break
			}
		}
	}
	return clamp(score)
}

func lookup(table map[core.Retailer]float64, r core.Retailer) float64 {
	if v, ok := table[r]; ok {
		return v
	}
	return unknownRetailerScore
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
