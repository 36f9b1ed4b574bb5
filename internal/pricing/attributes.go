package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

// AttributeAdjustment computes the price delta contributed by one selected
// attribute value.
//
// A simple value contributes its flat adjustment, converted from the primary
// currency only when positive; zero and negative adjustments are used as-is.
// The asymmetry matches the storefront platform this engine replaces and is
// pinned by tests.
//
// A value associated to another product contributes that product's final
// price (with the value's own adjustment as additional charge) multiplied by
// the value's quantity. A missing associated product contributes zero.
func (e *Engine) AttributeAdjustment(ctx context.Context, value *catalog.AttributeValue, pctx PriceContext) (decimal.Decimal, error) {
	if value == nil {
		return decimal.Zero, ErrNilAttributeValue
	}
	return e.attributeAdjustment(ctx, *value, pctx, map[string]struct{}{})
}

func (e *Engine) attributeAdjustment(ctx context.Context, value catalog.AttributeValue, pctx PriceContext, seen map[string]struct{}) (decimal.Decimal, error) {
	switch value.Kind {
	case catalog.AttributeValueSimple:
		if value.PriceAdjustment.IsPositive() {
			if e.Converter == nil {
				return decimal.Zero, ErrNotConfigured
			}
			return e.Converter.FromPrimary(ctx, value.PriceAdjustment, pctx.Currency)
		}
		return value.PriceAdjustment, nil

	case catalog.AttributeValueAssociatedToProduct:
		if e.Products == nil || value.AssociatedProductID == "" {
			return decimal.Zero, nil
		}
		if _, ok := seen[value.AssociatedProductID]; ok {
			return decimal.Zero, fmt.Errorf("%w: product %s", ErrAssociationCycle, value.AssociatedProductID)
		}
		associated, err := e.Products.ProductByID(ctx, value.AssociatedProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if associated == nil {
			return decimal.Zero, nil
		}
		seen[value.AssociatedProductID] = struct{}{}
		defer delete(seen, value.AssociatedProductID)
		res, err := e.FinalPrice(ctx, FinalPriceRequest{
			Product:          associated,
			Context:          pctx,
			AdditionalCharge: value.PriceAdjustment,
			IncludeDiscounts: true,
			Quantity:         1,
		})
		if err != nil {
			return decimal.Zero, err
		}
		qty := value.Quantity
		if qty < 1 {
			qty = 1
		}
		return res.Price.Mul(decimal.NewFromInt(int64(qty))), nil

	default:
		return decimal.Zero, fmt.Errorf("pricing: unknown attribute value kind %q", value.Kind)
	}
}

// attributesTotal sums the adjustments of a cart line's selected attribute
// values. For bundles, every component's selections are parsed against the
// component product and weighted by the component quantity.
func (e *Engine) attributesTotal(ctx context.Context, product *catalog.Product, selection []catalog.SelectedAttribute, pctx PriceContext, seen map[string]struct{}) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, sel := range selection {
		value, ok := product.AttributeValue(sel)
		if !ok {
			continue
		}
		adj, err := e.attributeAdjustment(ctx, value, pctx, seen)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(adj)
	}

	if product.ProductType != catalog.ProductTypeBundled || e.Products == nil {
		return total, nil
	}
	if _, ok := seen[product.ID]; ok {
		return decimal.Zero, fmt.Errorf("%w: product %s", ErrAssociationCycle, product.ID)
	}
	seen[product.ID] = struct{}{}
	defer delete(seen, product.ID)
	for _, item := range product.BundleItems {
		component, err := e.Products.ProductByID(ctx, item.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if component == nil {
			continue
		}
		weight := item.Quantity
		if weight < 1 {
			weight = 1
		}
		for _, sel := range selection {
			value, ok := component.AttributeValue(sel)
			if !ok {
				continue
			}
			adj, err := e.attributeAdjustment(ctx, value, pctx, seen)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(adj.Mul(decimal.NewFromInt(int64(weight))))
		}
	}
	return total, nil
}
