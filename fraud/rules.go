package fraud

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/cartwise/core"
)

// Rule identifiers. They appear in Stats.ByRule and in Listing.FraudFlags.
const (
	RuleInvalidPrice     = "invalid_price"
	RulePlaceholderImage = "placeholder_image"
	RuleShortTitle       = "short_title"
	RuleSponsored        = "sponsored"
	RuleBaitPrice        = "bait_price"
	RuleReviewMismatch   = "review_mismatch"

	RuleBelowMedian   = "below_median_price"
	RuleLowTrust      = "low_trust"
	RuleTyposquat     = "brand_typosquat"
	RuleMaterialClaim = "material_misrepresentation"
)

const (
	minTitleLength = 5

	// baitPriceCeiling is the price under which a marketplace listing is treated as bait.
	baitPriceCeiling = 1.00

	// reviewMismatch: this many reviews on an item this cheap is a hijacked listing.
	reviewMismatchCount   = 10000
	reviewMismatchCeiling = 3.00

	// MedianFraction is the share of the median price under which a listing is flagged.
	MedianFraction = 0.30
	// minMedianSample is the smallest set for which a median comparison is meaningful.
	minMedianSample = 3

	lowTrustThreshold = 30.0
)

// marketplaces are the retailers whose third-party sellers make bait listings common.
var marketplaces = []core.Retailer{core.RetailerEbay, core.RetailerAliExpress, core.RetailerTemu}

// ruleScope is the explicit allow-list of retailers each rule applies to.
// A rule absent from this map applies to every retailer.
var ruleScope = map[string][]core.Retailer{
	RuleBaitPrice:      marketplaces,
	RuleReviewMismatch: marketplaces,
	RuleTyposquat: {
		core.RetailerAmazon, core.RetailerWalmart, core.RetailerEbay,
		core.RetailerAliExpress, core.RetailerTemu,
	},
	RuleMaterialClaim: marketplaces,
}

// appliesTo reports whether rule is enabled for retailer r.
func appliesTo(rule string, r core.Retailer) bool {
	scope, scoped := ruleScope[rule]
	if !scoped {
		return true
	}
	for _, allowed := range scope {
		if allowed == r {
			return true
		}
	}
	return false
}

// listingRule is a per-listing predicate. Set-relative rules live in the filter.
type listingRule struct {
	id    string
	match func(l *core.Listing) bool
}

// removeRules are evaluated in order; the first match drops the listing.
var removeRules = []listingRule{
	{RuleInvalidPrice, invalidPrice},
	{RulePlaceholderImage, placeholderImage},
	{RuleShortTitle, shortTitle},
	{RuleSponsored, func(l *core.Listing) bool { return l.Sponsored }},
	{RuleBaitPrice, func(l *core.Listing) bool { return l.ParsedPrice < baitPriceCeiling }},
	{RuleReviewMismatch, func(l *core.Listing) bool {
		return l.ReviewCount >= reviewMismatchCount && l.ParsedPrice < reviewMismatchCeiling
	}},
}

// flagRules all run; every match adds a flag.
var flagRules = []listingRule{
	{RuleLowTrust, func(l *core.Listing) bool {
		return l.TrustScore != nil && *l.TrustScore < lowTrustThreshold
	}},
	{RuleTyposquat, func(l *core.Listing) bool { return typosquat(l.Brand, l.Name) }},
	{RuleMaterialClaim, materialMisrepresented},
}

func invalidPrice(l *core.Listing) bool {
	p := l.ParsedPrice
	return math.IsNaN(p) || math.IsInf(p, 0) || p <= 0
}

var placeholderMarkers = []string{
	"placeholder", "no-image", "noimage", "no_image", "image-not-available",
	"default.jpg", "default.png", "blank.gif", "spacer.gif", "data:image/gif",
}

func placeholderImage(l *core.Listing) bool {
	img := strings.ToLower(strings.TrimSpace(l.Image))
	if img == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(img, marker) {
			return true
		}
	}
	return false
}

func shortTitle(l *core.Listing) bool {
	return utf8.RuneCountInString(strings.TrimSpace(l.Name)) < minTitleLength
}

// materialFloors maps a material claim to the price under which a cross-border
// listing making it is implausible.
var materialFloors = []struct {
	claim string
	floor float64
}{
	{"genuine leather", 15},
	{"real leather", 15},
	{"full grain leather", 20},
	{"100% silk", 10},
	{"pure silk", 10},
	{"cashmere", 20},
	{"merino wool", 10},
	{"solid gold", 50},
	{"14k gold", 50},
	{"18k gold", 80},
	{"sterling silver", 5},
	{"925 silver", 5},
}

func materialMisrepresented(l *core.Listing) bool {
	if !l.IsInternational() {
		return false
	}
	name := strings.ToLower(l.Name)
	for _, m := range materialFloors {
		if strings.Contains(name, m.claim) && l.ParsedPrice < m.floor {
			return true
		}
	}
	return false
}
