// Package provider defines the uniform retailer search contract.
//
// A Gateway searches one retailer. It returns an error only when the retailer
// could not be reached or answered garbage; "no results" is an empty slice.
// Implementations live in sub-packages: httpjson talks to a JSON search API,
// static serves a deterministic offline catalog.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/cartwise/core"
)

// Gateway searches a single retailer.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Retailer identifies the retailer this gateway searches.
	Retailer() core.Retailer

	// Class tells whether the retailer ships domestically or cross-border.
	Class() core.ShippingClass

	// Search returns one page of listings for query. Pages start at 1.
	// Listings carry at least id, name, price, shipping class and delivery text.
	Search(ctx context.Context, query string, page int) ([]core.Listing, error)
}

// Func adapts a function to Gateway. It is handy in tests.
type Func struct {
	R          core.Retailer
	C          core.ShippingClass
	SearchFunc func(ctx context.Context, query string, page int) ([]core.Listing, error)
}

var _ Gateway = (*Func)(nil)

// NewFunc creates a Gateway backed by fn.
func NewFunc(r core.Retailer, class core.ShippingClass, fn func(ctx context.Context, query string, page int) ([]core.Listing, error)) *Func {
	return &Func{R: r, C: class, SearchFunc: fn}
}

func (f *Func) Retailer() core.Retailer   { return f.R }
func (f *Func) Class() core.ShippingClass { return f.C }

func (f *Func) Search(ctx context.Context, query string, page int) ([]core.Listing, error) {
	if f.SearchFunc == nil {
		return nil, nil
	}
	return f.SearchFunc(ctx, query, page)
}

// DefaultClass returns the usual shipping class of a retailer.
func DefaultClass(r core.Retailer) core.ShippingClass {
	switch r {
	case core.RetailerAliExpress, core.RetailerTemu:
		return core.ShippingInternational
	default:
		return core.ShippingDomestic
	}
}

// Select returns the gateways whose shipping class the market includes,
// preserving order.
func Select(gateways []Gateway, market core.Market) []Gateway {
	out := make([]Gateway, 0, len(gateways))
	for _, g := range gateways {
		if market.Includes(g.Class()) {
			out = append(out, g)
		}
	}
	return out
}

// Normalize completes listings returned by a retailer: ids are namespaced
// "retailer:native-id", retailer and shipping class are filled, a missing
// parsed price is read from the price text and TotalPrice is set to
// ParsedPrice + ShippingPrice. Listings without an id or name are dropped.
func Normalize(r core.Retailer, class core.ShippingClass, listings []core.Listing) []core.Listing {
	prefix := string(r) + ":"
	out := make([]core.Listing, 0, len(listings))
	for _, l := range listings {
		l = l.Clone()
		l.ID = strings.TrimSpace(l.ID)
		l.Name = strings.Join(strings.Fields(l.Name), " ")
		if l.ID == "" || l.Name == "" {
			continue
		}
		if !strings.HasPrefix(l.ID, prefix) {
			l.ID = prefix + l.ID
		}
		l.Retailer = r
		if l.ShippingClass == "" {
			l.ShippingClass = class
		}
		if l.ParsedPrice == 0 {
			if p, ok := ParsePrice(l.Price); ok {
				l.ParsedPrice = p
			}
		}
		if l.Price == "" && l.ParsedPrice > 0 {
			l.Price = fmt.Sprintf("$%.2f", l.ParsedPrice)
		}
		l.ParsedPrice = core.Round2(l.ParsedPrice)
		l.ShippingPrice = core.Round2(l.ShippingPrice)
		l.TotalPrice = core.Round2(l.ParsedPrice + l.ShippingPrice)
		out = append(out, l)
	}
	return out
}
