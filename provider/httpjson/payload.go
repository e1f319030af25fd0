package httpjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
)

// amount accepts a JSON number, a price string ("$1,299.99", "Free") or null.
type amount struct {
	raw   string
	value float64
	ok    bool
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.raw = strings.TrimSpace(s)
		a.value, a.ok = provider.ParsePrice(a.raw)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	a.value, a.ok = f, true
	return nil
}

// flexID accepts a string or numeric identifier.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// item is one search hit as the API reports it.
type item struct {
	ID         flexID   `json:"id"`
	Title      string   `json:"title"`
	Price      amount   `json:"price"`
	Image      string   `json:"image"`
	URL        string   `json:"url"`
	Delivery   string   `json:"delivery"`
	Shipping   amount   `json:"shipping"`
	Rating     float64  `json:"rating"`
	Reviews    int      `json:"reviews"`
	Brand      string   `json:"brand"`
	Sponsored  bool     `json:"sponsored"`
	TrustScore *float64 `json:"trust_score"`
	Ships      string   `json:"ships"` // "domestic" or "international"
}

func (it item) listing() core.Listing {
	l := core.Listing{
		ID:            string(it.ID),
		Name:          it.Title,
		Price:         it.Price.raw,
		Image:         strings.TrimSpace(it.Image),
		Link:          strings.TrimSpace(it.URL),
		Delivery:      strings.TrimSpace(it.Delivery),
		Rating:        it.Rating,
		ReviewCount:   it.Reviews,
		Brand:         strings.TrimSpace(it.Brand),
		Sponsored:     it.Sponsored,
		TrustScore:    it.TrustScore,
		ShippingClass: core.ShippingClass(strings.ToLower(strings.TrimSpace(it.Ships))),
	}
	if it.Price.ok {
		l.ParsedPrice = it.Price.value
	}
	if it.Shipping.ok {
		l.ShippingPrice = it.Shipping.value
	}
	switch l.ShippingClass {
	case "", core.ShippingDomestic, core.ShippingInternational:
	default:
		l.ShippingClass = ""
	}
	return l
}

// decode accepts both {"listings":[...]} and a bare [...] payload.
func decode(body []byte) ([]item, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var arr []item
		if err := json.Unmarshal(body, &arr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
		return arr, nil
	}
	var wrapped struct {
		Listings []item `json:"listings"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return wrapped.Listings, nil
}
