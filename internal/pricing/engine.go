// Package pricing resolves the final unit price of a product under
// interacting rules: tier pricing, customer-specific pricing, attribute and
// bundle price adjustments, rental-duration multipliers, currency
// conversion, discount stacking with quantity caps, and rounding policy.
//
// The engine is stateless and side-effect-free; every operation is a pure
// function of its inputs plus calls to read-only collaborators. Collaborator
// failures propagate unmodified, and no operation retries.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
	"github.com/storefront-kit/pricing-api/internal/currency"
)

var (
	// ErrNilProduct is returned when a required product argument is nil.
	ErrNilProduct = errors.New("pricing: product is required")
	// ErrNilCartItem is returned when a required cart item argument is nil.
	ErrNilCartItem = errors.New("pricing: cart item is required")
	// ErrNilAttributeValue is returned when a required attribute value argument is nil.
	ErrNilAttributeValue = errors.New("pricing: attribute value is required")
	// ErrAssociationCycle indicates associated/bundled products reference each other.
	ErrAssociationCycle = errors.New("pricing: associated product cycle")
	// ErrNotConfigured is returned when the engine is missing a required collaborator.
	ErrNotConfigured = errors.New("pricing: engine not configured")
)

// CurrencyConverter converts amounts between the primary store currency and
// a working currency.
type CurrencyConverter interface {
	FromPrimary(ctx context.Context, amount decimal.Decimal, target currency.Currency) (decimal.Decimal, error)
	ToPrimary(ctx context.Context, amount decimal.Decimal, source currency.Currency) (decimal.Decimal, error)
}

// ProductSource looks up products for bundle and associated-product
// recursion. A missing product is reported as (nil, nil), not an error.
type ProductSource interface {
	ProductByID(ctx context.Context, id string) (*catalog.Product, error)
}

// DiscountSource resolves the discounts applicable to a product at a given
// price and the aggregate amount to subtract.
type DiscountSource interface {
	DiscountAmount(ctx context.Context, product *catalog.Product, customer *catalog.Customer, storeID string, cur currency.Currency, price decimal.Decimal) ([]catalog.AppliedDiscount, decimal.Decimal, error)
}

// CustomerPriceSource looks up a per-customer price for a product, expressed
// in the primary currency. No entry is reported as (nil, nil).
type CustomerPriceSource interface {
	PriceForCustomer(ctx context.Context, customerID, productID string) (*decimal.Decimal, error)
}

// CartQuantitySource sums the quantities of a customer's cart lines holding
// the same product, used when tier quantities are grouped across lines.
type CartQuantitySource interface {
	QuantityInCarts(ctx context.Context, customerID, productID string, cartType catalog.CartType) (int, error)
}

// Settings is the immutable pricing configuration supplied at construction.
type Settings struct {
	// RoundPrices applies the currency's rounding policy as the last step of
	// final price resolution.
	RoundPrices bool
	// GroupTierPrices sums quantities across a customer's cart lines holding
	// the same product when selecting a tier price.
	GroupTierPrices bool
	// CustomerPricesEnabled turns on the per-customer price lookup.
	CustomerPricesEnabled bool
}

// Engine computes product prices. All fields except optional sources must be
// set before use.
type Engine struct {
	Converter      CurrencyConverter
	Products       ProductSource
	Discounts      DiscountSource
	CustomerPrices CustomerPriceSource
	CartQuantities CartQuantitySource
	Settings       Settings
}

// PriceContext carries the customer, store, and working currency a price is
// resolved for.
type PriceContext struct {
	Customer *catalog.Customer
	StoreID  string
	Currency currency.Currency
}

// FinalPriceRequest describes one final-price resolution.
type FinalPriceRequest struct {
	Product          *catalog.Product
	Context          PriceContext
	AdditionalCharge decimal.Decimal
	IncludeDiscounts bool
	Quantity         int
	RentalStart      *time.Time
	RentalEnd        *time.Time
}

// FinalPriceResult is the outcome of a final-price resolution.
type FinalPriceResult struct {
	Price            decimal.Decimal
	Discount         decimal.Decimal
	AppliedDiscounts []catalog.AppliedDiscount
	// TierPrice is the preferred tier that replaced the base price, when one
	// matched.
	TierPrice *catalog.TierPrice
}

// FinalPrice computes the per-unit final price of a product.
//
// Order matters: currency-scoped fixed price or converted base price,
// preferred tier price, customer-specific price (never increases the price),
// additional charge, rental day multiplier, discounts, clamp to zero,
// rounding. Rounding happens exactly once, as the last step, and only when
// Settings.RoundPrices is set.
func (e *Engine) FinalPrice(ctx context.Context, req FinalPriceRequest) (FinalPriceResult, error) {
	if req.Product == nil {
		return FinalPriceResult{}, ErrNilProduct
	}
	if e.Converter == nil {
		return FinalPriceResult{}, ErrNotConfigured
	}

	product := req.Product
	cur := req.Context.Currency
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	var (
		price decimal.Decimal
		err   error
	)
	if fixed, ok := product.FixedPrice(cur.Code); ok {
		price = fixed
	} else {
		price, err = e.Converter.FromPrimary(ctx, product.Price, cur)
		if err != nil {
			return FinalPriceResult{}, err
		}
	}

	result := FinalPriceResult{}
	if tp := catalog.PreferredTierPrice(product.TierPrices, req.Context.Customer, req.Context.StoreID, cur.Code, qty); tp != nil {
		price = tp.Price
		if tp.CurrencyCode == "" {
			price, err = e.Converter.FromPrimary(ctx, tp.Price, cur)
			if err != nil {
				return FinalPriceResult{}, err
			}
		}
		result.TierPrice = tp
	}

	price, err = e.applyCustomerPrice(ctx, product, req.Context, price)
	if err != nil {
		return FinalPriceResult{}, err
	}

	price = price.Add(req.AdditionalCharge)

	price = applyRentalMultiplier(product, price, req.RentalStart, req.RentalEnd)

	if req.IncludeDiscounts && e.Discounts != nil {
		applied, amount, err := e.Discounts.DiscountAmount(ctx, product, req.Context.Customer, req.Context.StoreID, cur, price)
		if err != nil {
			return FinalPriceResult{}, err
		}
		price = price.Sub(amount)
		result.AppliedDiscounts = applied
		result.Discount = amount
	}

	if price.IsNegative() {
		price = decimal.Zero
	}
	if e.Settings.RoundPrices {
		price = cur.Round(price)
	}
	result.Price = price
	return result, nil
}

// applyCustomerPrice replaces the price with the customer-specific price
// when one exists and is strictly lower. The comparison happens in the
// primary currency; the step never increases the price.
func (e *Engine) applyCustomerPrice(ctx context.Context, product *catalog.Product, pctx PriceContext, price decimal.Decimal) (decimal.Decimal, error) {
	if !e.Settings.CustomerPricesEnabled || e.CustomerPrices == nil || pctx.Customer == nil {
		return price, nil
	}
	custom, err := e.CustomerPrices.PriceForCustomer(ctx, pctx.Customer.ID, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if custom == nil {
		return price, nil
	}
	inPrimary, err := e.Converter.ToPrimary(ctx, price, pctx.Currency)
	if err != nil {
		return decimal.Zero, err
	}
	if !custom.LessThan(inPrimary) {
		return price, nil
	}
	return e.Converter.FromPrimary(ctx, *custom, pctx.Currency)
}

// applyRentalMultiplier multiplies the price by the rental day count for
// reservation products with both dates supplied. A non-positive day count
// leaves the price unmultiplied; the degenerate fallback mirrors long-lived
// storefront behaviour and is pinned by tests rather than rejected.
func applyRentalMultiplier(product *catalog.Product, price decimal.Decimal, start, end *time.Time) decimal.Decimal {
	if product.ProductType != catalog.ProductTypeReservation || start == nil || end == nil {
		return price
	}
	days := int(end.Sub(*start) / (24 * time.Hour))
	if product.IncBothDate {
		days++
	}
	if days <= 0 {
		return price
	}
	return price.Mul(decimal.NewFromInt(int64(days)))
}
