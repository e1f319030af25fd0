package provider

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// priceRegexp captures the first numeric amount, with optional thousands separators
var priceRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParsePrice extracts the amount from retailer price text.
//
// Examples:
//
//	"$1,299.99"       → 1299.99
//	"US $12.50"       → 12.5
//	"$10.99 - $24.99" → 10.99 (the low end of a range)
//	"Free"            → 0, false
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
