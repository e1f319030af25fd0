// Package landed computes the all-in price of a listing: product, shipping, and
// either domestic sales tax or cross-border import duty.
//
// Every function in this package is pure. Computing a cost twice for the same
// listing and ZIP code yields the same value, and listings are never modified.
package landed

import (
	"fmt"

	"github.com/poiesic/cartwise/core"
)

const (
	// FallbackTaxRate applies when the ZIP code is absent or does not resolve to a state.
	FallbackTaxRate = 0.07

	// DeMinimisThreshold is the declared value (price + shipping) at or under which
	// no import duty applies.
	DeMinimisThreshold = 800.00

	// AverageDutyRate is the flat duty estimate applied above the de-minimis threshold.
	AverageDutyRate = 0.05
)

// Compute returns the landed cost of one listing delivered to zipcode.
func Compute(l core.Listing, zipcode string) core.LandedCost {
	price := core.Round2(l.ParsedPrice)
	shipping := core.Round2(l.ShippingPrice)

	if l.IsInternational() {
		return computeGlobal(price, shipping)
	}
	return computeDomestic(price, shipping, zipcode)
}

func computeDomestic(price, shipping float64, zipcode string) core.LandedCost {
	state := StateForZip(zipcode)
	rate, ok := TaxRate(state)
	if !ok {
		rate = FallbackTaxRate
		state = ""
	}

	tax := core.Round2(price * rate)
	cost := core.LandedCost{
		ProductPrice: price,
		Shipping:     shipping,
		Tax:          tax,
		Total:        core.Round2(price + shipping + tax),
		Type:         core.CostDomestic,
		State:        state,
		TaxRate:      rate,
	}

	taxLabel := fmt.Sprintf("Sales tax (est. %.2f%%)", rate*100)
	if state != "" {
		taxLabel = fmt.Sprintf("Sales tax (%s %.2f%%)", state, rate*100)
	}
	cost.Breakdown = []core.CostLine{
		{Label: "Product", Amount: price},
		{Label: "Shipping", Amount: shipping},
		{Label: taxLabel, Amount: tax},
	}
	return cost
}

func computeGlobal(price, shipping float64) core.LandedCost {
	declared := core.Round2(price + shipping)
	dutyFree := declared <= DeMinimisThreshold

	var duty float64
	if !dutyFree {
		duty = core.Round2(declared * AverageDutyRate)
	}

	cost := core.LandedCost{
		ProductPrice: price,
		Shipping:     shipping,
		Duty:         duty,
		Total:        core.Round2(declared + duty),
		Type:         core.CostGlobal,
		DutyFree:     dutyFree,
	}

	dutyLabel := fmt.Sprintf("Import duty (est. %.0f%%)", AverageDutyRate*100)
	if dutyFree {
		dutyLabel = fmt.Sprintf("Import duty (waived under $%.0f)", DeMinimisThreshold)
	}
	cost.Breakdown = []core.CostLine{
		{Label: "Product", Amount: price},
		{Label: "Shipping", Amount: shipping},
		{Label: dutyLabel, Amount: duty},
	}
	return cost
}

// ComputeAll computes landed costs for a result set, keyed by listing ID.
func ComputeAll(listings []core.Listing, zipcode string) map[string]core.LandedCost {
	costs := make(map[string]core.LandedCost, len(listings))
	for _, l := range listings {
		costs[l.ID] = Compute(l, zipcode)
	}
	return costs
}
