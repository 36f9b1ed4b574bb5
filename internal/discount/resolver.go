package discount

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
	"github.com/storefront-kit/pricing-api/internal/common"
	"github.com/storefront-kit/pricing-api/internal/currency"
)

// ruleSource captures the storage methods the resolver needs.
type ruleSource interface {
	RulesForProduct(ctx context.Context, ids []string) ([]Rule, error)
}

// converter translates fixed rule values from the primary currency into the
// pricing currency.
type converter interface {
	FromPrimary(ctx context.Context, amount decimal.Decimal, target currency.Currency) (decimal.Decimal, error)
}

// Resolver selects the discounts applicable to a product and sums their
// amounts for a given unit price.
type Resolver struct {
	Rules     ruleSource
	Converter converter
	Now       func() time.Time
}

// DiscountAmount evaluates the product's assigned discount rules against the
// price. Rules that fail validation are skipped, not reported as errors. The
// summed amount never exceeds the price.
func (r *Resolver) DiscountAmount(ctx context.Context, product *catalog.Product, customer *catalog.Customer, storeID string, cur currency.Currency, price decimal.Decimal) ([]catalog.AppliedDiscount, decimal.Decimal, error) {
	if r == nil || r.Rules == nil {
		return nil, decimal.Zero, errors.New("discount resolver not configured")
	}
	if product == nil || len(product.AppliedDiscountIDs) == 0 {
		return nil, decimal.Zero, nil
	}
	rules, err := r.Rules.RulesForProduct(ctx, product.AppliedDiscountIDs)
	if err != nil {
		return nil, decimal.Zero, common.NewAppError("INTERNAL", "unable to load discount rules", http.StatusInternalServerError, err)
	}

	var groups []string
	if customer != nil {
		groups = customer.GroupIDs
	}
	now := r.now()

	var applied []catalog.AppliedDiscount
	total := decimal.Zero
	for _, rule := range rules {
		if err := rule.Validate(now, storeID, groups); err != nil {
			continue
		}
		amount, err := r.ruleAmount(ctx, rule, cur, price)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if amount.Sign() <= 0 {
			continue
		}
		total = total.Add(amount)
		applied = append(applied, catalog.AppliedDiscount{
			DiscountID:                rule.ID,
			Name:                      rule.Name,
			MaximumDiscountedQuantity: rule.MaximumDiscountedQuantity,
		})
	}
	if total.GreaterThan(price) {
		total = price
	}
	return applied, total, nil
}

// ruleAmount converts fixed values into the pricing currency before
// comparing them against the price. Percent rules already scale with it.
func (r *Resolver) ruleAmount(ctx context.Context, rule Rule, cur currency.Currency, price decimal.Decimal) (decimal.Decimal, error) {
	if rule.Kind != "percent" && r.Converter != nil {
		converted, err := r.Converter.FromPrimary(ctx, rule.Value, cur)
		if err != nil {
			return decimal.Zero, err
		}
		rule.Value = converted
	}
	return Compute(price, rule), nil
}

func (r *Resolver) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
