package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

// UnitPriceRequest describes the pricing of one concrete cart line.
type UnitPriceRequest struct {
	Product              *catalog.Product
	Context              PriceContext
	CartType             catalog.CartType
	Quantity             int
	Attributes           []catalog.SelectedAttribute
	CustomerEnteredPrice *decimal.Decimal
	RentalStart          *time.Time
	RentalEnd            *time.Time
	IncludeDiscounts     bool
}

// UnitPriceResult is the effective per-unit price of a cart line.
type UnitPriceResult struct {
	Price            decimal.Decimal
	Discount         decimal.Decimal
	AppliedDiscounts []catalog.AppliedDiscount
}

// UnitPrice computes the effective unit price for a cart line.
//
// Precedence, first match wins: customer-entered price (bypasses all further
// logic including discounts), attribute-combination override with the
// combination's own tier prices checked after and overwriting when matched,
// then the computed price (attribute adjustments plus FinalPrice). The
// result defaults to zero when no branch produced a price.
func (e *Engine) UnitPrice(ctx context.Context, req UnitPriceRequest) (UnitPriceResult, error) {
	if req.Product == nil {
		return UnitPriceResult{}, ErrNilProduct
	}
	if e.Converter == nil {
		return UnitPriceResult{}, ErrNotConfigured
	}

	product := req.Product
	cur := req.Context.Currency
	var result UnitPriceResult

	switch {
	case product.EnteredPrice:
		if req.CustomerEnteredPrice != nil {
			price, err := e.Converter.FromPrimary(ctx, *req.CustomerEnteredPrice, cur)
			if err != nil {
				return UnitPriceResult{}, err
			}
			result.Price = price
		}

	default:
		matched, err := e.combinationPrice(ctx, req, &result)
		if err != nil {
			return UnitPriceResult{}, err
		}
		if !matched {
			if err := e.computedPrice(ctx, req, &result); err != nil {
				return UnitPriceResult{}, err
			}
		}
	}

	if e.Settings.RoundPrices {
		result.Price = cur.Round(result.Price)
	}
	return result, nil
}

// combinationPrice resolves the overridden price and tier prices of a stored
// attribute combination matching the line's selection. It reports whether a
// price was produced.
func (e *Engine) combinationPrice(ctx context.Context, req UnitPriceRequest, result *UnitPriceResult) (bool, error) {
	combination := req.Product.FindCombination(req.Attributes)
	if combination == nil {
		return false, nil
	}
	matched := false
	if combination.OverriddenPrice != nil {
		price, err := e.Converter.FromPrimary(ctx, *combination.OverriddenPrice, req.Context.Currency)
		if err != nil {
			return false, err
		}
		result.Price = price
		matched = true
	}
	// A matched combination tier overwrites the overridden price.
	if tp := catalog.PreferredTierPrice(combination.TierPrices, req.Context.Customer, req.Context.StoreID, req.Context.Currency.Code, req.Quantity); tp != nil {
		price := tp.Price
		if tp.CurrencyCode == "" {
			var err error
			price, err = e.Converter.FromPrimary(ctx, tp.Price, req.Context.Currency)
			if err != nil {
				return false, err
			}
		}
		result.Price = price
		matched = true
	}
	return matched, nil
}

// computedPrice sums the attribute adjustments and delegates to FinalPrice
// with the effective tier quantity.
func (e *Engine) computedPrice(ctx context.Context, req UnitPriceRequest, result *UnitPriceResult) error {
	attrTotal, err := e.attributesTotal(ctx, req.Product, req.Attributes, req.Context, map[string]struct{}{})
	if err != nil {
		return err
	}

	qty := req.Quantity
	if e.Settings.GroupTierPrices && e.CartQuantities != nil && req.Context.Customer != nil {
		grouped, err := e.CartQuantities.QuantityInCarts(ctx, req.Context.Customer.ID, req.Product.ID, req.CartType)
		if err != nil {
			return err
		}
		if grouped > 0 {
			qty = grouped
		}
	}

	final, err := e.FinalPrice(ctx, FinalPriceRequest{
		Product:          req.Product,
		Context:          req.Context,
		AdditionalCharge: attrTotal,
		IncludeDiscounts: req.IncludeDiscounts,
		Quantity:         qty,
		RentalStart:      req.RentalStart,
		RentalEnd:        req.RentalEnd,
	})
	if err != nil {
		return err
	}
	result.Price = final.Price
	result.Discount = final.Discount
	result.AppliedDiscounts = final.AppliedDiscounts
	return nil
}
