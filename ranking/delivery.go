package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/cartwise/core"
)

var (
	// rangeRegexp captures "3-5", "3 - 5", "3–5" and "3 to 5"
	rangeRegexp = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)`)
	// numberRegexp captures the first number in the text
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// dateRegexp matches calendar dates such as "Arrives Oct 21", which carry no day count
	dateRegexp = regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`)
	// hourRegexp matches estimates given in hours such as "24 hours" or "2 hrs"
	hourRegexp = regexp.MustCompile(`\d\s*(?:hours?|hrs?)\b`)
)

// defaultDeliveryDays is assumed when a retailer gives no usable estimate.
var defaultDeliveryDays = map[core.Retailer]float64{
	core.RetailerAmazon:     2,
	core.RetailerWalmart:    3,
	core.RetailerTarget:     4,
	core.RetailerBestBuy:    3,
	core.RetailerEbay:       5,
	core.RetailerAliExpress: 14,
	core.RetailerTemu:       10,
}

const unknownRetailerDeliveryDays = 7

// ParseDeliveryDays converts a delivery estimate into a number of days.
//
// Examples:
//
//	"same day"          → 0
//	"Tomorrow"          → 1
//	"3-5 business days" → 4
//	"2 to 3 weeks"      → 17.5
//	"Ships in 48 hours" → 2
//	""                  → the retailer's default
func ParseDeliveryDays(text string, retailer core.Retailer) float64 {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "":
		return DefaultDeliveryDays(retailer)
	case strings.Contains(s, "same day"), strings.Contains(s, "same-day"), strings.Contains(s, "today"),
		strings.Contains(s, "within hours"):
		return 0
	case strings.Contains(s, "tomorrow"), strings.Contains(s, "next day"), strings.Contains(s, "next-day"),
		strings.Contains(s, "overnight"):
		return 1
	}

	if dateRegexp.MatchString(s) {
		return DefaultDeliveryDays(retailer)
	}

	unit := 1.0
	switch {
	case hourRegexp.MatchString(s):
		unit = 1.0 / 24
	case strings.Contains(s, "week"):
		unit = 7
	}

	if m := rangeRegexp.FindStringSubmatch(s); len(m) == 3 {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo == nil && errHi == nil {
			return (lo + hi) / 2 * unit
		}
	}
	if m := numberRegexp.FindString(s); m != "" {
		if n, err := strconv.ParseFloat(m, 64); err == nil {
			return n * unit
		}
	}
	if unit == 7 {
		// "a week", "within a week"
		return 7
	}
	return DefaultDeliveryDays(retailer)
}

// DefaultDeliveryDays returns the typical delivery time of a retailer.
func DefaultDeliveryDays(r core.Retailer) float64 {
	if d, ok := defaultDeliveryDays[r]; ok {
		return d
	}
	return unknownRetailerDeliveryDays
}
