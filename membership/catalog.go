// Package membership adjusts ranked listings for retailer loyalty programs.
//
// The catalog is static and read-only. Adjust is a pure pass: listings from a
// retailer whose program the user holds get the program's shipping, delivery
// and discount terms; listings that only showed free shipping because of a
// spend threshold get the non-member shipping charge. The set is then re-ranked
// so the best order reflects the new totals.
package membership

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/cartwise/core"
)

// Catalog is a read-only table of membership programs. It is safe for concurrent use.
type Catalog struct {
	byID       map[string]core.MembershipProgram
	byRetailer map[core.Retailer][]core.MembershipProgram
	ids        []string
}

// NewCatalog builds a catalog from programs. Ids are stored trimmed and
// lower-cased, must be unique, and every program must name a known retailer.
func NewCatalog(programs ...core.MembershipProgram) (*Catalog, error) {
	c := &Catalog{
		byID:       make(map[string]core.MembershipProgram, len(programs)),
		byRetailer: make(map[core.Retailer][]core.MembershipProgram),
	}
	for _, p := range programs {
		p.ID = normalizeID(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("%w: empty program id", ErrInvalidProgram)
		}
		if !p.Retailer.Valid() {
			return nil, fmt.Errorf("%w: program %s: %w", ErrInvalidProgram, p.ID, core.ErrUnknownRetailer)
		}
		if p.DiscountPercent < 0 || p.DiscountPercent >= 100 {
			return nil, fmt.Errorf("%w: program %s: discount %v", ErrInvalidProgram, p.ID, p.DiscountPercent)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProgram, p.ID)
		}
		c.byID[p.ID] = p
		c.byRetailer[p.Retailer] = append(c.byRetailer[p.Retailer], p)
		c.ids = append(c.ids, p.ID)
	}
	slices.Sort(c.ids)
	return c, nil
}

// DefaultCatalog returns the built-in programs.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPrograms()...)
	if err != nil {
		panic(err)
	}
	return c
}

func defaultPrograms() []core.MembershipProgram {
	free := core.Float(0)
	return []core.MembershipProgram{
		{
			ID: "amazon_prime", Name: "Amazon Prime", Retailer: core.RetailerAmazon,
			ShippingOverride: free, DeliveryDaysMin: 1, DeliveryDaysMax: 2,
			FreeShippingThreshold: 35, NonMemberShipping: 6.99, NonMemberDelivery: "5-8 business days",
		},
		{
			ID: "walmart_plus", Name: "Walmart+", Retailer: core.RetailerWalmart,
			ShippingOverride: free, DeliveryDaysMin: 1, DeliveryDaysMax: 3,
			FreeShippingThreshold: 35, NonMemberShipping: 6.99, NonMemberDelivery: "3-5 business days",
		},
		{
			ID: "target_circle_360", Name: "Target Circle 360", Retailer: core.RetailerTarget,
			ShippingOverride: free, DeliveryDaysMin: 1, DeliveryDaysMax: 2,
			FreeShippingThreshold: 35, NonMemberShipping: 5.99, NonMemberDelivery: "4-6 business days",
		},
		{
			ID: "bestbuy_plus", Name: "My Best Buy Plus", Retailer: core.RetailerBestBuy,
			ShippingOverride: free, DeliveryDaysMin: 1, DeliveryDaysMax: 2,
			FreeShippingThreshold: 35, NonMemberShipping: 5.99, NonMemberDelivery: "3-5 business days",
		},
		{
			ID: "ebay_plus", Name: "eBay Plus", Retailer: core.RetailerEbay,
			ShippingOverride: free, DeliveryDaysMin: 2, DeliveryDaysMax: 4,
		},
	}
}

// Lookup returns the program with the given id.
func (c *Catalog) Lookup(id string) (core.MembershipProgram, bool) {
	p, ok := c.byID[normalizeID(id)]
	return p, ok
}

// ForRetailer returns the programs offered by a retailer, in catalog order.
func (c *Catalog) ForRetailer(r core.Retailer) []core.MembershipProgram {
	return slices.Clone(c.byRetailer[r])
}

// Programs returns every program sorted by id.
func (c *Catalog) Programs() []core.MembershipProgram {
	out := make([]core.MembershipProgram, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

// Resolve validates caller-supplied program ids and returns the normalized set.
// Unknown ids are reported together in one error.
func (c *Catalog) Resolve(ids []string) ([]string, error) {
	var (
		out     []string
		unknown []string
	)
	for _, id := range ids {
		id = normalizeID(id)
		if id == "" {
			continue
		}
		if _, ok := c.byID[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(unknown) > 0 {
		return out, fmt.Errorf("%w: %s", ErrUnknownProgram, strings.Join(unknown, ", "))
	}
	return out, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
