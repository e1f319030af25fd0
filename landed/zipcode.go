package landed

import "strconv"

// zipRange maps an inclusive range of 3-digit ZIP prefixes to a state code.
type zipRange struct {
	lo, hi int
	state  string
}

// zipRanges covers the contiguous US state assignments of 3-digit ZIP prefixes.
// Military, territory and unassigned prefixes are left out and resolve to no state.
var zipRanges = []zipRange{
	{5, 5, "NY"},
	{10, 27, "MA"},
	{28, 29, "RI"},
	{30, 38, "NH"},
	{39, 49, "ME"},
	{50, 59, "VT"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{150, 196, "PA"},
	{197, 199, "DE"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{247, 268, "WV"},
	{270, 289, "NC"},
	{290, 299, "SC"},
	{300, 319, "GA"},
	{320, 349, "FL"},
	{350, 369, "AL"},
	{370, 385, "TN"},
	{386, 397, "MS"},
	{398, 399, "GA"},
	{400, 427, "KY"},
	{430, 459, "OH"},
	{460, 479, "IN"},
	{480, 499, "MI"},
	{500, 528, "IA"},
	{530, 549, "WI"},
	{550, 567, "MN"},
	{570, 577, "SD"},
	{580, 588, "ND"},
	{590, 599, "MT"},
	{600, 629, "IL"},
	{630, 658, "MO"},
	{660, 679, "KS"},
	{680, 693, "NE"},
	{700, 714, "LA"},
	{716, 729, "AR"},
	{730, 749, "OK"},
	{750, 799, "TX"},
	{800, 816, "CO"},
	{820, 831, "WY"},
	{832, 838, "ID"},
	{840, 847, "UT"},
	{850, 865, "AZ"},
	{870, 884, "NM"},
	{885, 885, "TX"},
	{889, 898, "NV"},
	{900, 961, "CA"},
	{967, 968, "HI"},
	{970, 979, "OR"},
	{980, 994, "WA"},
	{995, 999, "AK"},
}

// stateTaxRates holds base state sales-tax rates. Local add-ons are not modeled.
var stateTaxRates = map[string]float64{
	"AL": 0.04, "AK": 0, "AZ": 0.056, "AR": 0.065, "CA": 0.0725,
	"CO": 0.029, "CT": 0.0635, "DE": 0, "DC": 0.06, "FL": 0.06,
	"GA": 0.04, "HI": 0.04, "ID": 0.06, "IL": 0.0625, "IN": 0.07,
	"IA": 0.06, "KS": 0.065, "KY": 0.06, "LA": 0.0445, "ME": 0.055,
	"MD": 0.06, "MA": 0.0625, "MI": 0.06, "MN": 0.06875, "MS": 0.07,
	"MO": 0.04225, "MT": 0, "NE": 0.055, "NV": 0.0685, "NH": 0,
	"NJ": 0.06625, "NM": 0.04875, "NY": 0.04, "NC": 0.0475, "ND": 0.05,
	"OH": 0.0575, "OK": 0.045, "OR": 0, "PA": 0.06, "RI": 0.07,
	"SC": 0.06, "SD": 0.042, "TN": 0.07, "TX": 0.0625, "UT": 0.061,
	"VT": 0.06, "VA": 0.053, "WA": 0.065, "WV": 0.06, "WI": 0.05,
	"WY": 0.04,
}

// StateForZip resolves a US state code from the first three digits of a ZIP code.
// It accepts ZIP+4 and returns "" for malformed or unassigned codes.
func StateForZip(zip string) string {
	if len(zip) < 5 {
		return ""
	}
	prefix, err := strconv.Atoi(zip[:3])
	if err != nil || prefix < 0 {
		return ""
	}
	for _, digit := range zip[:5] {
		if digit < '0' || digit > '9' {
			return ""
		}
	}
	for _, r := range zipRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.state
		}
	}
	return ""
}

// TaxRate returns the sales-tax rate for a state and whether the state is known.
func TaxRate(state string) (float64, bool) {
	rate, ok := stateTaxRates[state]
	return rate, ok
}
