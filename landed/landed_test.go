package landed

import (
	"testing"

	"github.com/poiesic/cartwise/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domestic(price, shipping float64) core.Listing {
	return core.Listing{
		ID:            "amazon:1",
		Name:          "Wireless earbuds",
		ParsedPrice:   price,
		ShippingPrice: shipping,
		TotalPrice:    price + shipping,
		Retailer:      core.RetailerAmazon,
		ShippingClass: core.ShippingDomestic,
	}
}

func global(price, shipping float64) core.Listing {
	l := domestic(price, shipping)
	l.ID = "aliexpress:1"
	l.Retailer = core.RetailerAliExpress
	l.ShippingClass = core.ShippingInternational
	return l
}

func TestStateForZip(t *testing.T) {
	tests := []struct {
		zip  string
		want string
	}{
		{"94105", "CA"},
		{"10001", "NY"},
		{"00501", "NY"},
		{"75201", "TX"},
		{"97201-1234", "OR"},
		{"60601", "IL"},
		{"99501", "AK"},
		{"00901", ""}, // Puerto Rico is not modeled
		{"1234", ""},
		{"abcde", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			assert.Equal(t, tt.want, StateForZip(tt.zip))
		})
	}
}

func TestCompute_Domestic(t *testing.T) {
	t.Run("known state", func(t *testing.T) {
		cost := Compute(domestic(100, 5.99), "94105")
		assert.Equal(t, core.CostDomestic, cost.Type)
		assert.Equal(t, "CA", cost.State)
		assert.Equal(t, 7.25, cost.Tax)
		assert.Equal(t, 113.24, cost.Total)
		assert.Zero(t, cost.Duty)
		require.Len(t, cost.Breakdown, 3)
		assert.Contains(t, cost.Breakdown[2].Label, "CA")
	})

	t.Run("tax-free state", func(t *testing.T) {
		cost := Compute(domestic(100, 0), "97201")
		assert.Equal(t, "OR", cost.State)
		assert.Zero(t, cost.Tax)
		assert.Equal(t, 100.0, cost.Total)
	})

	t.Run("missing zipcode uses fallback rate", func(t *testing.T) {
		cost := Compute(domestic(100, 0), "")
		assert.Empty(t, cost.State)
		assert.Equal(t, FallbackTaxRate, cost.TaxRate)
		assert.Equal(t, 7.0, cost.Tax)
		assert.Equal(t, 107.0, cost.Total)
	})

	t.Run("unassigned zipcode uses fallback rate", func(t *testing.T) {
		cost := Compute(domestic(50, 0), "00901")
		assert.Equal(t, FallbackTaxRate, cost.TaxRate)
		assert.Equal(t, 3.5, cost.Tax)
	})
}

func TestCompute_Global(t *testing.T) {
	t.Run("below threshold is duty free", func(t *testing.T) {
		cost := Compute(global(25, 3), "94105")
		assert.Equal(t, core.CostGlobal, cost.Type)
		assert.True(t, cost.DutyFree)
		assert.Zero(t, cost.Duty)
		assert.Zero(t, cost.Tax, "no sales tax is modeled cross-border")
		assert.Equal(t, 28.0, cost.Total)
	})

	t.Run("exactly at threshold is duty free", func(t *testing.T) {
		cost := Compute(global(790, 10), "")
		assert.True(t, cost.DutyFree)
		assert.Equal(t, 800.0, cost.Total)
	})

	t.Run("one cent above threshold pays duty", func(t *testing.T) {
		cost := Compute(global(790.01, 10), "")
		assert.False(t, cost.DutyFree)
		assert.Equal(t, 40.0, cost.Duty)
		assert.Equal(t, 840.01, cost.Total)
	})
}

func TestCompute_PureAndIdempotent(t *testing.T) {
	listings := []core.Listing{domestic(19.99, 4.99), global(850, 0), domestic(0.01, 0)}
	for _, l := range listings {
		before := l
		first := Compute(l, "10001")
		second := Compute(l, "10001")
		assert.Equal(t, first, second)
		assert.Equal(t, before, l)
		// the listing total stays product + shipping; tax and duty live on the cost
		assert.InDelta(t, l.ParsedPrice+l.ShippingPrice, l.TotalPrice, 0.005)
		assert.InDelta(t, first.ProductPrice+first.Shipping+first.Tax+first.Duty, first.Total, 0.005)
	}
}

func TestComputeAll(t *testing.T) {
	costs := ComputeAll([]core.Listing{domestic(10, 0), global(10, 0)}, "")
	require.Len(t, costs, 2)
	assert.Equal(t, core.CostDomestic, costs["amazon:1"].Type)
	assert.Equal(t, core.CostGlobal, costs["aliexpress:1"].Type)
}
