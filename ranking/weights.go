package ranking

import "math"

// Weights are the per-axis multipliers of the best-overall score. They sum to 1.
type Weights struct {
	Price        float64 `json:"price"`
	Speed        float64 `json:"speed"`
	Trust        float64 `json:"trust"`
	Match        float64 `json:"match"`
	ReturnPolicy float64 `json:"returnPolicy"`
}

// priceSpeedShare is the combined weight of the price and speed axes.
const priceSpeedShare = 0.60

// DefaultBalance is the price/speed balance that reproduces DefaultWeights.
const DefaultBalance = 50

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Price:        0.35,
		Speed:        0.25,
		Trust:        0.20,
		Match:        0.15,
		ReturnPolicy: 0.05,
	}
}

// WeightsForBalance redistributes the price and speed weights for a balance in
// [0,100], where 0 cares only about price and 100 only about speed. The sum of
// the two stays at 0.60 and the other axes keep their default weights.
// The mapping is piecewise linear through (0, .60), (50, .35) and (100, 0);
// out-of-range and NaN balances are clamped to the nearest valid value.
func WeightsForBalance(balance float64) Weights {
	if math.IsNaN(balance) {
		balance = DefaultBalance
	}
	b := math.Max(0, math.Min(100, balance))

	w := DefaultWeights()
	var price float64
	if b <= DefaultBalance {
		price = priceSpeedShare - (priceSpeedShare-w.Price)*b/DefaultBalance
	} else {
		price = w.Price * (1 - (b-DefaultBalance)/DefaultBalance)
	}
	w.Price = round4(price)
	w.Speed = round4(priceSpeedShare - w.Price)
	return w
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Price + w.Speed + w.Trust + w.Match + w.ReturnPolicy
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
