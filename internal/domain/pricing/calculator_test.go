package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCalculate_Empty(t *testing.T) {
	totals, err := Calculate(nil)
	require.NoError(t, err)
	assert.True(t, totals.Equal(Zero()))
}

func TestCalculate_SingleLine(t *testing.T) {
	totals, err := Calculate([]Item{{Quantity: d("2"), UnitPrice: d("100"), Discount: d("10"), TaxRate: d("10")}})
	require.NoError(t, err)

	assert.Equal(t, "200.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "19.00", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "209.00", totals.TotalAmount.StringFixed(2))
}

func TestCalculate_NoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 в float64 даёт 0.30000000000000004
	totals, err := Calculate([]Item{
		{Quantity: d("1"), UnitPrice: d("0.1")},
		{Quantity: d("1"), UnitPrice: d("0.2")},
	})
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(d("0.3")))
	assert.True(t, totals.TotalAmount.Equal(d("0.3")))
}

func TestCalculate_MixedTaxRates(t *testing.T) {
	totals, err := Calculate([]Item{
		{Quantity: d("3"), UnitPrice: d("33.33"), TaxRate: d("20")},
		{Quantity: d("1.5"), UnitPrice: d("10"), Discount: d("5"), TaxRate: d("0")},
	})
	require.NoError(t, err)

	// 99.99 * 20% = 19.998 -> 20.00
	assert.Equal(t, "114.99", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "20.00", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "129.99", totals.TotalAmount.StringFixed(2))
}

func TestCalculate_Validation(t *testing.T) {
	cases := []struct {
		name  string
		item  Item
		field string
	}{
		{"negative quantity", Item{Quantity: d("-1"), UnitPrice: d("1")}, "items[0].quantity"},
		{"negative price", Item{Quantity: d("1"), UnitPrice: d("-1")}, "items[0].unit_price"},
		{"negative discount", Item{Quantity: d("1"), UnitPrice: d("1"), Discount: d("-1")}, "items[0].discount"},
		{"discount above line", Item{Quantity: d("1"), UnitPrice: d("1"), Discount: d("2")}, "items[0].discount"},
		{"tax above 100", Item{Quantity: d("1"), UnitPrice: d("1"), TaxRate: d("100.01")}, "items[0].tax_rate"},
		{"negative tax", Item{Quantity: d("1"), UnitPrice: d("1"), TaxRate: d("-0.5")}, "items[0].tax_rate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate([]Item{tc.item})
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Fields, tc.field)
		})
	}
}

func TestCalculate_TaxRateBounds(t *testing.T) {
	_, err := Calculate([]Item{{Quantity: d("1"), UnitPrice: d("10"), TaxRate: d("100")}})
	assert.NoError(t, err)
	_, err = Calculate([]Item{{Quantity: d("1"), UnitPrice: d("10"), TaxRate: d("0")}})
	assert.NoError(t, err)
}

func TestCalculate_TotalsIdentityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		n := rng.Intn(12)
		items := make([]Item, 0, n)
		for i := 0; i < n; i++ {
			qty := decimal.New(rng.Int63n(10000), -int32(rng.Intn(3)))
			price := decimal.New(rng.Int63n(1000000), -2)
			line := qty.Mul(price)
			discount := decimal.Zero
			if line.IsPositive() {
				discount = line.Mul(decimal.New(rng.Int63n(101), -2)).Round(2)
				if discount.GreaterThan(line) {
					discount = line
				}
			}
			rate := decimal.New(rng.Int63n(10001), -2)
			items = append(items, Item{Quantity: qty, UnitPrice: price, Discount: discount, TaxRate: rate})
		}

		totals, err := Calculate(items)
		require.NoError(t, err)
		assert.True(t,
			totals.TotalAmount.Equal(totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.TaxAmount)),
			"run %d: identity violated: %+v", run, totals,
		)
		assert.False(t, totals.TaxAmount.IsNegative())
	}
}
