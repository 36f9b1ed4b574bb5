package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
	"github.com/storefront-kit/pricing-api/internal/currency"
)

var eur2 = currency.Currency{Code: "EUR", Rate: decimal.NewFromInt(2)}

func TestAttributeAdjustmentSimplePositiveConverted(t *testing.T) {
	e := testEngine()
	value := &catalog.AttributeValue{Kind: catalog.AttributeValueSimple, PriceAdjustment: dec("5")}
	adj, err := e.AttributeAdjustment(context.Background(), value, PriceContext{Currency: eur2})
	if err != nil {
		t.Fatalf("AttributeAdjustment: %v", err)
	}
	if !adj.Equal(dec("10")) {
		t.Fatalf("positive adjustment should convert, expected 10, got %s", adj)
	}
}

// Zero and negative adjustments are deliberately left unconverted.
func TestAttributeAdjustmentSimpleNonPositiveUnconverted(t *testing.T) {
	e := testEngine()
	for _, raw := range []string{"0", "-5"} {
		value := &catalog.AttributeValue{Kind: catalog.AttributeValueSimple, PriceAdjustment: dec(raw)}
		adj, err := e.AttributeAdjustment(context.Background(), value, PriceContext{Currency: eur2})
		if err != nil {
			t.Fatalf("AttributeAdjustment(%s): %v", raw, err)
		}
		if !adj.Equal(dec(raw)) {
			t.Fatalf("adjustment %s must stay unconverted, got %s", raw, adj)
		}
	}
}

func TestAttributeAdjustmentAssociatedProduct(t *testing.T) {
	e := testEngine()
	e.Products = fakeProducts{"assoc": flatProduct("12")}
	value := &catalog.AttributeValue{
		Kind:                catalog.AttributeValueAssociatedToProduct,
		AssociatedProductID: "assoc",
		PriceAdjustment:     dec("3"),
		Quantity:            2,
	}
	adj, err := e.AttributeAdjustment(context.Background(), value, PriceContext{Currency: usd})
	if err != nil {
		t.Fatalf("AttributeAdjustment: %v", err)
	}
	// (12 + 3 additional charge) * quantity 2
	if !adj.Equal(dec("30")) {
		t.Fatalf("expected 30, got %s", adj)
	}
}

func TestAttributeAdjustmentMissingAssociatedProduct(t *testing.T) {
	e := testEngine()
	e.Products = fakeProducts{}
	value := &catalog.AttributeValue{Kind: catalog.AttributeValueAssociatedToProduct, AssociatedProductID: "ghost", Quantity: 3}
	adj, err := e.AttributeAdjustment(context.Background(), value, PriceContext{Currency: usd})
	if err != nil {
		t.Fatalf("AttributeAdjustment: %v", err)
	}
	if !adj.IsZero() {
		t.Fatalf("missing associated product must contribute zero, got %s", adj)
	}
}

func TestAttributeAdjustmentNilValue(t *testing.T) {
	e := testEngine()
	if _, err := e.AttributeAdjustment(context.Background(), nil, PriceContext{Currency: usd}); !errors.Is(err, ErrNilAttributeValue) {
		t.Fatalf("expected ErrNilAttributeValue, got %v", err)
	}
}

func TestBundleAssociationCycleDetected(t *testing.T) {
	e := testEngine()
	// A bundle whose component carries an attribute value associated back to
	// the bundle itself.
	bundle := &catalog.Product{
		ID:          "bundle",
		ProductType: catalog.ProductTypeBundled,
		Price:       dec("10"),
		BundleItems: []catalog.BundleItem{{ProductID: "comp", Quantity: 1}},
	}
	component := &catalog.Product{
		ID:          "comp",
		ProductType: catalog.ProductTypeStandard,
		Price:       dec("5"),
		Attributes: []catalog.ProductAttribute{{
			ID: "a1",
			Values: []catalog.AttributeValue{{
				ID:                  "v1",
				Kind:                catalog.AttributeValueAssociatedToProduct,
				AssociatedProductID: "bundle",
			}},
		}},
	}
	e.Products = fakeProducts{"bundle": bundle, "comp": component}

	_, err := e.UnitPrice(context.Background(), UnitPriceRequest{
		Product:    bundle,
		Context:    PriceContext{Currency: usd},
		Quantity:   1,
		Attributes: []catalog.SelectedAttribute{{AttributeID: "a1", ValueID: "v1"}},
	})
	if !errors.Is(err, ErrAssociationCycle) {
		t.Fatalf("expected ErrAssociationCycle, got %v", err)
	}
}
