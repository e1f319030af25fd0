// Package ranking scores listings on price, speed, trust, match and return
// policy, and derives three orders from one scored set: best overall, cheapest
// and fastest.
//
// Price and delivery days are min-max normalized within the current set and
// inverted, so the cheapest and the fastest listing score 100 on their axis.
// Fraud flags subtract a penalty after weighting.
package ranking

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/cartwise/core"
)

const (
	// FlagPenalty is subtracted from the weighted score for each fraud flag.
	FlagPenalty = 8
	// MaxPenalty caps the total fraud penalty.
	MaxPenalty = 25
)

// AxisPick describes the head of one sort order.
type AxisPick struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Retailer     core.Retailer `json:"retailer"`
	Price        float64       `json:"price"`
	Delivery     string        `json:"delivery"`
	DeliveryDays float64       `json:"deliveryDays"`
}

// AxisSummary reports the top listing of each order. Zero-valued picks mean an empty set.
type AxisSummary struct {
	Best     AxisPick `json:"best"`
	Cheapest AxisPick `json:"cheapest"`
	Fastest  AxisPick `json:"fastest"`
}

// Result is a scored set in its three orders. The orders share no listing memory.
type Result struct {
	Best     []core.ScoredListing
	Cheapest []core.ScoredListing
	Fastest  []core.ScoredListing
	Summary  AxisSummary
	Weights  Weights
}

// Len returns the number of scored listings.
func (r Result) Len() int {
	return len(r.Best)
}

type options struct {
	weights Weights
}

// Option configures Score.
type Option func(*options)

// WithWeights sets explicit axis weights.
func WithWeights(w Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}

// WithPriceSpeedBalance derives weights from a price/speed balance in [0,100].
func WithPriceSpeedBalance(balance float64) Option {
	return func(o *options) {
		o.weights = WeightsForBalance(balance)
	}
}

// Score computes the raw signals of each listing and ranks them.
//
// The landed price comes from costs keyed by listing id; listings without an
// entry fall back to their TotalPrice. Inputs are not modified.
func Score(listings []core.Listing, costs map[string]core.LandedCost, query string, opts ...Option) Result {
	o := options{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(&o)
	}

	scored := make([]core.ScoredListing, len(listings))
	for i, l := range listings {
		s := core.ScoredListing{Listing: l.Clone()}
		s.LandedPrice = l.TotalPrice
		if c, ok := costs[l.ID]; ok {
			s.LandedPrice = c.Total
		}
		s.DeliveryDays = ParseDeliveryDays(l.Delivery, l.Retailer)
		s.Breakdown.Trust = round2(TrustSignal(l))
		s.Breakdown.Match = round2(MatchSignal(l, query))
		s.Breakdown.ReturnPolicy = round2(ReturnPolicySignal(l))
		scored[i] = s
	}
	return rank(scored, o.weights)
}

// Rank re-normalizes and re-weights an already scored set. Trust, match and
// return-policy signals are kept from each listing's breakdown; price and speed
// are recomputed from LandedPrice and DeliveryDays, so callers that shift those
// values get orders consistent with them. Fraud penalties are recomputed from
// the listing's flags. Inputs are not modified.
func Rank(scored []core.ScoredListing, w Weights) Result {
	in := make([]core.ScoredListing, len(scored))
	for i, s := range scored {
		in[i] = s.Clone()
	}
	return rank(in, w)
}

type indexed struct {
	core.ScoredListing
	idx int
}

func rank(scored []core.ScoredListing, w Weights) Result {
	res := Result{Weights: w}
	if len(scored) == 0 {
		return res
	}

	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	minDays, maxDays := math.Inf(1), math.Inf(-1)
	for _, s := range scored {
		minPrice, maxPrice = math.Min(minPrice, s.LandedPrice), math.Max(maxPrice, s.LandedPrice)
		minDays, maxDays = math.Min(minDays, s.DeliveryDays), math.Max(maxDays, s.DeliveryDays)
	}

	items := make([]indexed, len(scored))
	for i, s := range scored {
		b := &s.Breakdown
		b.Price = round2(invertedNorm(s.LandedPrice, minPrice, maxPrice))
		b.Speed = round2(invertedNorm(s.DeliveryDays, minDays, maxDays))
		b.Weighted = round2(b.Price*w.Price + b.Speed*w.Speed + b.Trust*w.Trust +
			b.Match*w.Match + b.ReturnPolicy*w.ReturnPolicy)
		b.Penalty = Penalty(len(s.FraudFlags))
		s.Score = round2(math.Max(0, b.Weighted-b.Penalty))
		items[i] = indexed{ScoredListing: s, idx: i}
	}

	res.Best = sorted(items, byBest)
	res.Cheapest = sorted(items, byCheapest)
	res.Fastest = sorted(items, byFastest)
	res.Summary = AxisSummary{
		Best:     pick(res.Best[0]),
		Cheapest: pick(res.Cheapest[0]),
		Fastest:  pick(res.Fastest[0]),
	}
	return res
}

// Penalty returns the score deduction for a number of fraud flags.
func Penalty(flags int) float64 {
	return math.Min(MaxPenalty, float64(FlagPenalty*flags))
}

// invertedNorm maps v in [lo,hi] to [100,0]. A set without spread scores 100.
func invertedNorm(v, lo, hi float64) float64 {
	if hi <= lo {
		return 100
	}
	return (hi - v) / (hi - lo) * 100
}

func byBest(a, b indexed) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LandedPrice, b.LandedPrice); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DeliveryDays, b.DeliveryDays); c != 0 {
		return c
	}
	return tiebreak(a, b)
}

func byCheapest(a, b indexed) int {
	if c := cmp.Compare(a.LandedPrice, b.LandedPrice); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return tiebreak(a, b)
}

func byFastest(a, b indexed) int {
	if c := cmp.Compare(a.DeliveryDays, b.DeliveryDays); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LandedPrice, b.LandedPrice); c != 0 {
		return c
	}
	return tiebreak(a, b)
}

func tiebreak(a, b indexed) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.idx, b.idx)
}

func sorted(items []indexed, order func(a, b indexed) int) []core.ScoredListing {
	tmp := slices.Clone(items)
	slices.SortFunc(tmp, order)
	out := make([]core.ScoredListing, len(tmp))
	for i, it := range tmp {
		out[i] = it.ScoredListing.Clone()
	}
	return out
}

func pick(s core.ScoredListing) AxisPick {
	return AxisPick{
		ID:           s.ID,
		Name:         s.Name,
		Retailer:     s.Retailer,
		Price:        s.LandedPrice,
		Delivery:     s.Delivery,
		DeliveryDays: s.DeliveryDays,
	}
}

func round2(v float64) float64 {
	return core.Round2(v)
}
