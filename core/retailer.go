package core

import "strings"

// Retailer is the structured identifier of a retailer backend.
// Rules that apply per retailer key off this value, never off display names.
type Retailer string

const (
	RetailerUnknown    Retailer = ""
	RetailerAmazon     Retailer = "amazon"
	RetailerWalmart    Retailer = "walmart"
	RetailerTarget     Retailer = "target"
	RetailerBestBuy    Retailer = "bestbuy"
	RetailerEbay       Retailer = "ebay"
	RetailerAliExpress Retailer = "aliexpress"
	RetailerTemu       Retailer = "temu"
)

// Retailers lists every supported retailer in canonical order.
var Retailers = []Retailer{
	RetailerAmazon,
	RetailerWalmart,
	RetailerTarget,
	RetailerBestBuy,
	RetailerEbay,
	RetailerAliExpress,
	RetailerTemu,
}

var retailerNames = map[Retailer]string{
	RetailerAmazon:     "Amazon",
	RetailerWalmart:    "Walmart",
	RetailerTarget:     "Target",
	RetailerBestBuy:    "Best Buy",
	RetailerEbay:       "eBay",
	RetailerAliExpress: "AliExpress",
	RetailerTemu:       "Temu",
}

// ParseRetailer resolves a free-text retailer name ("Best Buy", "ALIEXPRESS",
// "walmart.com") to its identifier. Unknown names return RetailerUnknown, false.
func ParseRetailer(name string) (Retailer, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, ".com")
	key = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' || r == '.' {
			return -1
		}
		return r
	}, key)
	for _, r := range Retailers {
		if string(r) == key {
			return r, true
		}
	}
	return RetailerUnknown, false
}

// String returns the display name of the retailer.
func (r Retailer) String() string {
	if name, ok := retailerNames[r]; ok {
		return name
	}
	if r == RetailerUnknown {
		return "unknown"
	}
	return string(r)
}

// Valid reports whether r is one of the supported retailers.
func (r Retailer) Valid() bool {
	_, ok := retailerNames[r]
	return ok
}

// ParseMarket resolves a market scope string; anything unrecognized means all markets.
func ParseMarket(s string) Market {
	switch Market(strings.ToLower(strings.TrimSpace(s))) {
	case MarketDomestic:
		return MarketDomestic
	case MarketGlobal:
		return MarketGlobal
	default:
		return MarketAll
	}
}

// Includes reports whether a provider of the given shipping class belongs to the market scope.
func (m Market) Includes(class ShippingClass) bool {
	switch m {
	case MarketDomestic:
		return class == ShippingDomestic
	case MarketGlobal:
		return class == ShippingInternational
	default:
		return true
	}
}
