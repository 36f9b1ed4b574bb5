package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

func subTotal(t *testing.T, e *Engine, req SubTotalRequest) SubTotalResult {
	t.Helper()
	res, err := e.SubTotal(context.Background(), req)
	if err != nil {
		t.Fatalf("SubTotal: %v", err)
	}
	return res
}

func TestSubTotalWithoutDiscounts(t *testing.T) {
	e := testEngine()
	product := flatProduct("55.11")
	item := &catalog.CartItem{ProductID: product.ID, Quantity: 2, CartType: catalog.CartTypeShopping}

	res := subTotal(t, e, SubTotalRequest{Item: item, Product: product, Context: PriceContext{Currency: usd}, IncludeDiscounts: true})
	if !res.SubTotal.Equal(dec("110.22")) {
		t.Fatalf("expected 110.22, got %s", res.SubTotal)
	}
	if !res.Discount.IsZero() || len(res.AppliedDiscounts) != 0 {
		t.Fatalf("expected no discounts, got %s / %d", res.Discount, len(res.AppliedDiscounts))
	}
}

func TestSubTotalSplitQuantityCap(t *testing.T) {
	e := testEngine()
	maxQty := 10
	e.Discounts = &fakeDiscounts{
		applied: []catalog.AppliedDiscount{{DiscountID: "d1", MaximumDiscountedQuantity: &maxQty}},
		amount:  dec("2"),
	}
	product := flatProduct("10")
	item := &catalog.CartItem{ProductID: product.ID, Quantity: 12, CartType: catalog.CartTypeShopping}

	res := subTotal(t, e, SubTotalRequest{Item: item, Product: product, Context: PriceContext{Currency: usd}, IncludeDiscounts: true})
	// 10 units at the discounted price 8.00 plus 2 units re-priced at 10.00.
	if !res.SubTotal.Equal(dec("100.00")) {
		t.Fatalf("expected split subtotal 100.00, got %s", res.SubTotal)
	}
	// Discount scales by the discounted quantity, not the full line.
	if !res.Discount.Equal(dec("20")) {
		t.Fatalf("expected discount 20, got %s", res.Discount)
	}
}

func TestSubTotalCapCoversWholeLine(t *testing.T) {
	e := testEngine()
	maxQty := 20
	e.Discounts = &fakeDiscounts{
		applied: []catalog.AppliedDiscount{{DiscountID: "d1", MaximumDiscountedQuantity: &maxQty}},
		amount:  dec("2"),
	}
	product := flatProduct("10")
	item := &catalog.CartItem{ProductID: product.ID, Quantity: 12, CartType: catalog.CartTypeShopping}

	res := subTotal(t, e, SubTotalRequest{Item: item, Product: product, Context: PriceContext{Currency: usd}, IncludeDiscounts: true})
	if !res.SubTotal.Equal(dec("96")) {
		t.Fatalf("expected 12*8=96, got %s", res.SubTotal)
	}
	if !res.Discount.Equal(dec("24")) {
		t.Fatalf("discount should scale by the full quantity, got %s", res.Discount)
	}
}

func TestSubTotalUncappedDiscount(t *testing.T) {
	e := testEngine()
	e.Discounts = &fakeDiscounts{
		applied: []catalog.AppliedDiscount{{DiscountID: "d1"}},
		amount:  dec("2"),
	}
	product := flatProduct("10")
	item := &catalog.CartItem{ProductID: product.ID, Quantity: 12, CartType: catalog.CartTypeShopping}

	res := subTotal(t, e, SubTotalRequest{Item: item, Product: product, Context: PriceContext{Currency: usd}, IncludeDiscounts: true})
	if !res.SubTotal.Equal(dec("96")) {
		t.Fatalf("expected 96, got %s", res.SubTotal)
	}
	if !res.Discount.Equal(dec("24")) {
		t.Fatalf("expected 24, got %s", res.Discount)
	}
}

func TestSubTotalLargestCapWins(t *testing.T) {
	e := testEngine()
	capSmall, capLarge := 4, 10
	e.Discounts = &fakeDiscounts{
		applied: []catalog.AppliedDiscount{
			{DiscountID: "d1", MaximumDiscountedQuantity: &capSmall},
			{DiscountID: "d2", MaximumDiscountedQuantity: &capLarge},
		},
		amount: dec("2"),
	}
	product := flatProduct("10")
	item := &catalog.CartItem{ProductID: product.ID, Quantity: 12, CartType: catalog.CartTypeShopping}

	res := subTotal(t, e, SubTotalRequest{Item: item, Product: product, Context: PriceContext{Currency: usd}, IncludeDiscounts: true})
	if !res.SubTotal.Equal(dec("100.00")) {
		t.Fatalf("largest cap must drive the split, got %s", res.SubTotal)
	}
	if !res.Discount.Equal(dec("20")) {
		t.Fatalf("expected discount 20, got %s", res.Discount)
	}
}

func TestSubTotalNilArguments(t *testing.T) {
	e := testEngine()
	if _, err := e.SubTotal(context.Background(), SubTotalRequest{Product: flatProduct("1")}); !errors.Is(err, ErrNilCartItem) {
		t.Fatalf("expected ErrNilCartItem, got %v", err)
	}
	if _, err := e.SubTotal(context.Background(), SubTotalRequest{Item: &catalog.CartItem{}}); !errors.Is(err, ErrNilProduct) {
		t.Fatalf("expected ErrNilProduct, got %v", err)
	}
}
