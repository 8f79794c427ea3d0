package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func activeWindow() (*time.Time, *time.Time) {
	return timePtr(now.AddDate(0, 0, -5)), timePtr(now.AddDate(0, 0, 5))
}

func newDiscountProduct(price, percent string) domain.Product {
	starts, ends := activeWindow()
	return domain.Product{
		ID:              "prod-discount",
		Name:            "Laptop",
		Price:           decimal.RequireFromString(price),
		Stock:           100,
		DiscountPercent: decPtr(percent),
		OfferStartsAt:   starts,
		OfferEndsAt:     ends,
	}
}

func newTradeOfferProduct(price string, minQty, getQty int) domain.Product {
	starts, ends := activeWindow()
	return domain.Product{
		ID:               "prod-trade",
		Name:             "Mouse",
		Price:            decimal.RequireFromString(price),
		Stock:            100,
		TradeOfferMinQty: intPtr(minQty),
		TradeOfferGetQty: intPtr(getQty),
		OfferStartsAt:    starts,
		OfferEndsAt:      ends,
	}
}

func TestSelector_DiscountCalculation(t *testing.T) {
	selector := pricing.NewSelector()
	product := newDiscountProduct("1000.00", "10")

	result := selector.Calculate(product, 3, now)

	assert.Equal(t, domain.OfferTypeDiscount, result.OfferType)
	assert.True(t, result.EffectiveUnitPrice.Equal(decimal.RequireFromString("900.00")),
		"effective unit price: %s", result.EffectiveUnitPrice)
	assert.True(t, result.DiscountAmount.Equal(decimal.RequireFromString("300.00")),
		"discount amount: %s", result.DiscountAmount)
	assert.True(t, result.Subtotal.Equal(decimal.RequireFromString("2700.00")),
		"subtotal: %s", result.Subtotal)
	assert.Equal(t, 3, result.Quantity)
	assert.Equal(t, 0, result.FreeQuantity)
	assert.Equal(t, 3, result.TotalQuantity())
	require.NotNil(t, result.DiscountPercent)
	assert.True(t, result.DiscountPercent.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "10% discount applied", result.Description)
}

func TestSelector_DiscountRounding(t *testing.T) {
	selector := pricing.NewSelector()
	// 19.99 со скидкой 15%: 16.9915 → 16.99 после округления.
	product := newDiscountProduct("19.99", "15")

	result := selector.Calculate(product, 2, now)

	assert.True(t, result.EffectiveUnitPrice.Equal(decimal.RequireFromString("16.99")),
		"effective unit price: %s", result.EffectiveUnitPrice)
	assert.True(t, result.Subtotal.Equal(decimal.RequireFromString("33.98")),
		"subtotal: %s", result.Subtotal)
	assert.True(t, result.DiscountAmount.Equal(decimal.RequireFromString("6.00")),
		"discount amount: %s", result.DiscountAmount)
}

func TestSelector_TradeOfferCalculation(t *testing.T) {
	selector := pricing.NewSelector()
	product := newTradeOfferProduct("25.00", 3, 1)

	cases := []struct {
		qty      int
		wantFree int
	}{
		{qty: 2, wantFree: 0},
		{qty: 3, wantFree: 1},
		{qty: 6, wantFree: 2},
		{qty: 7, wantFree: 2},
	}

	for _, tc := range cases {
		result := selector.Calculate(product, tc.qty, now)

		assert.Equal(t, domain.OfferTypeTradeOffer, result.OfferType, "qty %d", tc.qty)
		assert.Equal(t, tc.wantFree, result.FreeQuantity, "qty %d", tc.qty)
		assert.Equal(t, tc.qty+tc.wantFree, result.TotalQuantity(), "qty %d", tc.qty)

		// Покупатель платит полную цену за запрошенные единицы.
		wantSubtotal := product.Price.Mul(decimal.NewFromInt(int64(tc.qty)))
		assert.True(t, result.Subtotal.Equal(wantSubtotal), "qty %d: subtotal %s", tc.qty, result.Subtotal)

		// Стоимость бесплатных единиц отчётная и не вычитается из Subtotal.
		wantDiscount := product.Price.Mul(decimal.NewFromInt(int64(tc.wantFree)))
		assert.True(t, result.DiscountAmount.Equal(wantDiscount), "qty %d: discount %s", tc.qty, result.DiscountAmount)
	}
}

func TestSelector_TradeOfferDescription(t *testing.T) {
	selector := pricing.NewSelector()
	product := newTradeOfferProduct("25.00", 3, 1)

	result := selector.Calculate(product, 7, now)
	assert.Equal(t, "Buy 3 Get 1 Free (Total: 9 items, Paid for: 7)", result.Description)
}

func TestSelector_NoOffer(t *testing.T) {
	selector := pricing.NewSelector()
	product := domain.Product{
		ID:    "prod-plain",
		Name:  "Monitor",
		Price: decimal.RequireFromString("300.00"),
		Stock: 30,
	}

	result := selector.Calculate(product, 2, now)

	assert.Equal(t, domain.OfferTypeNone, result.OfferType)
	assert.True(t, result.Subtotal.Equal(decimal.RequireFromString("600.00")))
	assert.True(t, result.DiscountAmount.IsZero())
	assert.Nil(t, result.DiscountPercent)
	assert.Equal(t, "No active offer", result.Description)
}

func TestSelector_ExpiredOfferFallsBack(t *testing.T) {
	selector := pricing.NewSelector()
	product := newDiscountProduct("75.00", "15")
	product.OfferStartsAt = timePtr(now.AddDate(0, 0, -30))
	product.OfferEndsAt = timePtr(now.AddDate(0, 0, -5))

	result := selector.Calculate(product, 1, now)

	assert.Equal(t, domain.OfferTypeNone, result.OfferType)
	assert.True(t, result.EffectiveUnitPrice.Equal(product.Price))
}

func TestSelector_DiscountBeatsTradeOffer(t *testing.T) {
	selector := pricing.NewSelector()
	product := newDiscountProduct("100.00", "20")
	product.TradeOfferMinQty = intPtr(2)
	product.TradeOfferGetQty = intPtr(1)

	result := selector.Calculate(product, 4, now)

	assert.Equal(t, domain.OfferTypeDiscount, result.OfferType)
	assert.Equal(t, 0, result.FreeQuantity)
	assert.True(t, result.EffectiveUnitPrice.Equal(decimal.RequireFromString("80.00")))
}

func TestSelector_CalculateIsIdempotent(t *testing.T) {
	selector := pricing.NewSelector()
	product := newDiscountProduct("19.99", "15")

	first := selector.Calculate(product, 5, now)
	second := selector.Calculate(product, 5, now)

	assert.Equal(t, first.OfferType, second.OfferType)
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.EffectiveUnitPrice.Equal(second.EffectiveUnitPrice))
	assert.Equal(t, first.FreeQuantity, second.FreeQuantity)
}
