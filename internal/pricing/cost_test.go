package pricing

import (
	"context"
	"testing"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

func TestProductCostWithAttributes(t *testing.T) {
	e := testEngine()
	e.Products = fakeProducts{"assoc": {ID: "assoc", Cost: dec("4")}}
	product := &catalog.Product{
		ID:   "p1",
		Cost: dec("12.50"),
		Attributes: []catalog.ProductAttribute{{
			ID: "a1",
			Values: []catalog.AttributeValue{
				{ID: "v1", Kind: catalog.AttributeValueSimple, Cost: dec("1.25")},
				{ID: "v2", Kind: catalog.AttributeValueAssociatedToProduct, AssociatedProductID: "assoc", Quantity: 2},
			},
		}},
	}
	selection := []catalog.SelectedAttribute{
		{AttributeID: "a1", ValueID: "v1"},
		{AttributeID: "a1", ValueID: "v2"},
	}
	cost, err := e.ProductCost(context.Background(), product, selection)
	if err != nil {
		t.Fatalf("ProductCost: %v", err)
	}
	// 12.50 + 1.25 + 2*4
	if !cost.Equal(dec("21.75")) {
		t.Fatalf("expected 21.75, got %s", cost)
	}
}

// Cost is native-unit and must not depend on any working currency.
func TestProductCostCurrencyIndependent(t *testing.T) {
	e := testEngine()
	product := &catalog.Product{ID: "p1", Cost: dec("12.50")}
	cost, err := e.ProductCost(context.Background(), product, nil)
	if err != nil {
		t.Fatalf("ProductCost: %v", err)
	}
	if !cost.Equal(dec("12.50")) {
		t.Fatalf("expected 12.50, got %s", cost)
	}
}

func TestProductCostMissingAssociatedSkipped(t *testing.T) {
	e := testEngine()
	e.Products = fakeProducts{}
	product := &catalog.Product{
		ID:   "p1",
		Cost: dec("10"),
		Attributes: []catalog.ProductAttribute{{
			ID:     "a1",
			Values: []catalog.AttributeValue{{ID: "v1", Kind: catalog.AttributeValueAssociatedToProduct, AssociatedProductID: "ghost"}},
		}},
	}
	cost, err := e.ProductCost(context.Background(), product, []catalog.SelectedAttribute{{AttributeID: "a1", ValueID: "v1"}})
	if err != nil {
		t.Fatalf("ProductCost: %v", err)
	}
	if !cost.Equal(dec("10")) {
		t.Fatalf("expected 10, got %s", cost)
	}
}
