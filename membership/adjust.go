package membership

import (
	"fmt"
	"math"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/ranking"
)

// Adjust applies the active programs to a scored set and re-ranks it with w.
//
// Totals move by deltas: the shipping change minus any member discount is added
// to both TotalPrice and LandedPrice, so tax or duty already in the landed price
// is not counted twice. ParsedPrice keeps the retailer's list price. Fraud flags
// and the trust, match and return-policy signals carry over unchanged.
// The input is not modified.
func (c *Catalog) Adjust(scored []core.ScoredListing, active []string, w ranking.Weights) ranking.Result {
	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[normalizeID(id)] = true
	}

	adjusted := make([]core.ScoredListing, len(scored))
	for i, s := range scored {
		s = s.Clone()
		programs := c.byRetailer[s.Retailer]
		if p, ok := firstActive(programs, activeSet); ok {
			applyMember(&s, p)
		} else if p, ok := thresholdProgram(programs); ok {
			applyNonMember(&s, p)
		}
		adjusted[i] = s
	}
	return ranking.Rank(adjusted, w)
}

func firstActive(programs []core.MembershipProgram, active map[string]bool) (core.MembershipProgram, bool) {
	for _, p := range programs {
		if active[p.ID] {
			return p, true
		}
	}
	return core.MembershipProgram{}, false
}

func thresholdProgram(programs []core.MembershipProgram) (core.MembershipProgram, bool) {
	for _, p := range programs {
		if p.FreeShippingThreshold > 0 && p.NonMemberShipping > 0 {
			return p, true
		}
	}
	return core.MembershipProgram{}, false
}

func applyMember(s *core.ScoredListing, p core.MembershipProgram) {
	shipping := s.ShippingPrice
	if p.ShippingOverride != nil {
		shipping = *p.ShippingOverride
	}
	discount := core.Round2(s.ParsedPrice * p.DiscountPercent / 100)
	delta := (shipping - s.ShippingPrice) - discount

	s.ShippingPrice = shipping
	shift(s, delta)
	s.Membership = p.ID
	s.MemberSavings = core.Round2(math.Max(0, -delta))

	if p.DeliveryDaysMax > 0 {
		s.Delivery = memberDelivery(p)
		s.DeliveryDays = float64(p.DeliveryDaysMin+p.DeliveryDaysMax) / 2
	}
}

// applyNonMember charges the non-member rate when the listing shows free
// shipping on an order below the program's threshold.
func applyNonMember(s *core.ScoredListing, p core.MembershipProgram) {
	if s.ShippingPrice != 0 || s.ParsedPrice >= p.FreeShippingThreshold {
		return
	}
	s.ShippingPrice = p.NonMemberShipping
	shift(s, p.NonMemberShipping)
	if p.NonMemberDelivery != "" {
		s.Delivery = p.NonMemberDelivery
		s.DeliveryDays = ranking.ParseDeliveryDays(p.NonMemberDelivery, s.Retailer)
	}
}

func shift(s *core.ScoredListing, delta float64) {
	s.TotalPrice = core.Round2(s.TotalPrice + delta)
	s.LandedPrice = core.Round2(s.LandedPrice + delta)
}

func memberDelivery(p core.MembershipProgram) string {
	if p.DeliveryDaysMin == p.DeliveryDaysMax {
		if p.DeliveryDaysMax == 1 {
			return fmt.Sprintf("1 day with %s", p.Name)
		}
		return fmt.Sprintf("%d days with %s", p.DeliveryDaysMax, p.Name)
	}
	return fmt.Sprintf("%d-%d days with %s", p.DeliveryDaysMin, p.DeliveryDaysMax, p.Name)
}
