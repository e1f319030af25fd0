package fraud

import "strings"

// knownBrands is the fixed brand list checked for lookalike spellings.
var knownBrands = []string{
	"apple", "samsung", "sony", "bose", "beats", "jbl", "anker", "nike", "adidas",
	"dyson", "lego", "nintendo", "microsoft", "logitech", "lenovo", "canon", "nikon",
	"gucci", "rolex", "pandora", "northface", "playstation", "kitchenaid",
}

// knownVariants are lookalike spellings observed on marketplaces that the
// generic checks below would miss.
var knownVariants = map[string]string{
	"appel":     "apple",
	"aple":      "apple",
	"samsong":   "samsung",
	"samsuny":   "samsung",
	"sonny":     "sony",
	"beets":     "beats",
	"addidas":   "adidas",
	"adibas":    "adidas",
	"nikey":     "nike",
	"lego-like": "lego",
	"airpodds":  "airpods",
	"airbods":   "airpods",
	"rollex":    "rolex",
}

var leet = strings.NewReplacer("0", "o", "1", "l", "3", "e", "4", "a", "5", "s", "7", "t", "$", "s", "@", "a")

// typosquat reports whether the brand field or a title word is a lookalike of a
// known brand without being the brand itself.
func typosquat(brand, title string) bool {
	tokens := tokenize(brand)
	tokens = append(tokens, tokenize(title)...)
	for _, tok := range tokens {
		if lookalike(tok) != "" {
			return true
		}
	}
	return false
}

// lookalike returns the brand a token imitates, or "" when it imitates none.
func lookalike(tok string) string {
	if len(tok) < 3 || isBrand(tok) {
		return ""
	}
	if b, ok := knownVariants[tok]; ok {
		return b
	}
	if hasLeet(tok) {
		if normalized := leet.Replace(tok); isBrand(normalized) {
			return normalized
		}
	}
	for _, b := range knownBrands {
		// short brands sit one edit away from ordinary words ("bose"/"rose")
		if len(b) < 6 || tok[0] != b[0] {
			continue
		}
		if editDistanceOne(tok, b) {
			return b
		}
	}
	return ""
}

func isBrand(tok string) bool {
	for _, b := range knownBrands {
		if tok == b {
			return true
		}
	}
	return false
}

func hasLeet(tok string) bool {
	return strings.ContainsAny(tok, "013457$@")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '$' || r == '@' || r == '-')
	})
}

// editDistanceOne reports whether a and b differ by exactly one insertion,
// deletion or substitution.
func editDistanceOne(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}
	i, j, edits := 0, 0, 0
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		if la == lb {
			i++
		}
		j++
	}
	edits += (la - i) + (lb - j)
	return edits == 1
}
