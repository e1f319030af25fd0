// Package static provides an offline provider.Gateway that serves a
// deterministic synthetic catalog.
//
// The same retailer, query and page always yield the same listings, which
// makes the gateway useful for demos, local development and tests. Latency
// and failures can be injected to exercise the fan-out path.
package static

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
)

const DefaultCount = 8

// profile shapes the synthetic catalog of one retailer.
type profile struct {
	priceFactor float64
	shipping    []float64
	delivery    []string
	minRating   float64
}

var profiles = map[core.Retailer]profile{
	core.RetailerAmazon:     {1.0, []float64{0, 0, 5.99}, []string{"Tomorrow", "2 days", "3-5 days"}, 3.8},
	core.RetailerWalmart:    {0.95, []float64{0, 6.99}, []string{"2 days", "3-5 days"}, 3.6},
	core.RetailerTarget:     {1.05, []float64{0, 5.99}, []string{"2-3 days", "4-6 days"}, 3.8},
	core.RetailerBestBuy:    {1.1, []float64{0, 5.99}, []string{"Tomorrow", "3-5 days"}, 3.9},
	core.RetailerEbay:       {0.85, []float64{0, 4.5, 8.99}, []string{"3-6 days", "5-8 days"}, 3.2},
	core.RetailerAliExpress: {0.45, []float64{0, 1.99}, []string{"10-20 days", "2-3 weeks"}, 3.0},
	core.RetailerTemu:       {0.4, []float64{0}, []string{"7-12 days", "8-15 days"}, 3.0},
}

var brands = []string{"Sony", "Anker", "Philips", "JLab", "Soundcore", "Generic", "Samsung", "Belkin"}

var variants = []string{"", "Pro", "2-Pack", "Lite", "Plus", "Max", "Mini", "Deluxe"}

// Gateway serves deterministic listings for one retailer.
type Gateway struct {
	retailer core.Retailer
	class    core.ShippingClass
	count    int
	latency  time.Duration
	failure  error
	logger   *slog.Logger
}

var _ provider.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithCount sets how many listings each page holds.
// Default is 8.
func WithCount(n int) Option {
	return func(g *Gateway) {
		if n >= 0 {
			g.count = n
		}
	}
}

// WithLatency delays every search by d, or until the context ends.
func WithLatency(d time.Duration) Option {
	return func(g *Gateway) {
		g.latency = d
	}
}

// WithFailure makes every search fail with err.
func WithFailure(err error) Option {
	return func(g *Gateway) {
		g.failure = err
	}
}

// New creates a gateway for retailer.
func New(retailer core.Retailer, opts ...Option) (provider.Gateway, error) {
	return newGateway(retailer, opts...)
}

func newGateway(retailer core.Retailer, opts ...Option) (*Gateway, error) {
	if !retailer.Valid() {
		return nil, fmt.Errorf("%w: %q", provider.ErrUnknownRetailer, retailer)
	}
	g := &Gateway{
		retailer: retailer,
		class:    provider.DefaultClass(retailer),
		count:    DefaultCount,
		logger:   slog.Default().With("component", "static", "retailer", string(retailer)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// All returns one gateway per supported retailer in canonical order.
func All(opts ...Option) []provider.Gateway {
	out := make([]provider.Gateway, 0, len(core.Retailers))
	for _, r := range core.Retailers {
		g, _ := newGateway(r, opts...)
		out = append(out, g)
	}
	return out
}

func (g *Gateway) Retailer() core.Retailer   { return g.retailer }
func (g *Gateway) Class() core.ShippingClass { return g.class }

// Search returns the synthetic page for query.
func (g *Gateway) Search(ctx context.Context, query string, page int) ([]core.Listing, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.failure != nil {
		return nil, g.failure
	}

	q := strings.Join(strings.Fields(query), " ")
	if q == "" || g.count == 0 {
		return []core.Listing{}, nil
	}
	if page < 1 {
		page = 1
	}

	p := profiles[g.retailer]
	seed := seedFor(fmt.Sprintf("%s|%s|%d", g.retailer, strings.ToLower(q), page))
	next := func(n uint32) uint32 {
		seed = seed*1664525 + 1013904223 // LCG constants
		return (seed >> 8) % n
	}
	base := 10 + float64(next(190))

	listings := make([]core.Listing, 0, g.count)
	for i := range g.count {
		brand := brands[next(uint32(len(brands)))]
		variant := variants[next(uint32(len(variants)))]
		name := strings.TrimSpace(fmt.Sprintf("%s %s %s", brand, titleCase(q), variant))

		price := core.Round2((base*(0.6+float64(next(80))/100) + float64(next(100))/100) * p.priceFactor)
		if price < 0.99 {
			price = 0.99
		}
		reviews := int(next(5000))
		rating := core.Round2(p.minRating + float64(next(uint32((5-p.minRating)*10)+1))/10)

		nativeID := fmt.Sprintf("%d%04d", page, i+1)
		listings = append(listings, core.Listing{
			ID:            nativeID,
			Name:          name,
			Price:         fmt.Sprintf("$%.2f", price),
			ParsedPrice:   price,
			Image:         fmt.Sprintf("https://img.example.invalid/%s/%s.jpg", g.retailer, nativeID),
			Link:          fmt.Sprintf("https://%s.example.invalid/item/%s", g.retailer, nativeID),
			Delivery:      p.delivery[next(uint32(len(p.delivery)))],
			ShippingPrice: p.shipping[next(uint32(len(p.shipping)))],
			Rating:        rating,
			ReviewCount:   reviews,
			Brand:         brand,
			Sponsored:     i == 0 && next(3) == 0,
		})
	}
	g.logger.Debug("served synthetic page", "query", q, "page", page, "listings", len(listings))
	return provider.Normalize(g.retailer, g.class, listings), nil
}

func seedFor(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
