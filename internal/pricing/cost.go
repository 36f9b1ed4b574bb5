package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

// ProductCost computes the non-price cost of a product and its selected
// attributes, for margin reporting. Cost is always expressed in the
// product's native unit: no discounts, no currency conversion, no rounding.
func (e *Engine) ProductCost(ctx context.Context, product *catalog.Product, attributes []catalog.SelectedAttribute) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, ErrNilProduct
	}
	cost := product.Cost
	for _, sel := range attributes {
		value, ok := product.AttributeValue(sel)
		if !ok {
			continue
		}
		switch value.Kind {
		case catalog.AttributeValueSimple:
			cost = cost.Add(value.Cost)
		case catalog.AttributeValueAssociatedToProduct:
			if e.Products == nil || value.AssociatedProductID == "" {
				continue
			}
			associated, err := e.Products.ProductByID(ctx, value.AssociatedProductID)
			if err != nil {
				return decimal.Zero, err
			}
			if associated == nil {
				// Missing associated products contribute nothing.
				continue
			}
			qty := value.Quantity
			if qty < 1 {
				qty = 1
			}
			cost = cost.Add(associated.Cost.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	return cost, nil
}
