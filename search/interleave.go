package search

import "github.com/poiesic/cartwise/core"

// interleave deals listings round-robin by retailer. Retailers take turns in
// the order they first appear, and each retailer's listings keep their
// relative order.
func interleave(ranked []core.ScoredListing) []core.ScoredListing {
	groups := make(map[core.Retailer][]core.ScoredListing)
	var order []core.Retailer
	for _, s := range ranked {
		if _, ok := groups[s.Retailer]; !ok {
			order = append(order, s.Retailer)
		}
		groups[s.Retailer] = append(groups[s.Retailer], s)
	}

	out := make([]core.ScoredListing, 0, len(ranked))
	for round := 0; len(out) < len(ranked); round++ {
		for _, r := range order {
			if round < len(groups[r]) {
				out = append(out, groups[r][round])
			}
		}
	}
	return out
}
