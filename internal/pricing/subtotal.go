package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

// SubTotalRequest describes a cart line subtotal computation.
type SubTotalRequest struct {
	Item             *catalog.CartItem
	Product          *catalog.Product
	Context          PriceContext
	IncludeDiscounts bool
}

// SubTotalResult carries the line subtotal and its discount share.
type SubTotalResult struct {
	SubTotal         decimal.Decimal
	Discount         decimal.Decimal
	AppliedDiscounts []catalog.AppliedDiscount
}

// SubTotal computes a cart line's subtotal, applying discount quantity
// capping.
//
// When at least one applied discount carries a maximum discounted quantity
// and the line quantity exceeds the largest such cap, the line is split:
// the capped quantity keeps the discounted unit price and the remainder is
// re-priced without discounts. The discount amount then scales by the
// discounted quantity, not the full line.
func (e *Engine) SubTotal(ctx context.Context, req SubTotalRequest) (SubTotalResult, error) {
	if req.Item == nil {
		return SubTotalResult{}, ErrNilCartItem
	}
	if req.Product == nil {
		return SubTotalResult{}, ErrNilProduct
	}

	unitReq := UnitPriceRequest{
		Product:              req.Product,
		Context:              req.Context,
		CartType:             req.Item.CartType,
		Quantity:             req.Item.Quantity,
		Attributes:           req.Item.Attributes,
		CustomerEnteredPrice: req.Item.EnteredPrice,
		RentalStart:          req.Item.RentalStart,
		RentalEnd:            req.Item.RentalEnd,
		IncludeDiscounts:     req.IncludeDiscounts,
	}
	unit, err := e.UnitPrice(ctx, unitReq)
	if err != nil {
		return SubTotalResult{}, err
	}

	qty := req.Item.Quantity
	if qty < 1 {
		qty = 1
	}
	qtyDec := decimal.NewFromInt(int64(qty))

	result := SubTotalResult{
		SubTotal:         unit.Price.Mul(qtyDec),
		Discount:         unit.Discount.Mul(qtyDec),
		AppliedDiscounts: unit.AppliedDiscounts,
	}

	maxDiscounted, capped := largestDiscountedQuantityCap(unit.AppliedDiscounts)
	if !capped || qty <= maxDiscounted {
		return result, nil
	}

	undiscountedReq := unitReq
	undiscountedReq.IncludeDiscounts = false
	undiscounted, err := e.UnitPrice(ctx, undiscountedReq)
	if err != nil {
		return SubTotalResult{}, err
	}

	discountedQty := decimal.NewFromInt(int64(maxDiscounted))
	remainderQty := decimal.NewFromInt(int64(qty - maxDiscounted))
	result.SubTotal = unit.Price.Mul(discountedQty).Add(undiscounted.Price.Mul(remainderQty))
	result.Discount = unit.Discount.Mul(discountedQty)
	return result, nil
}

// largestDiscountedQuantityCap returns the biggest maximum-discounted-quantity
// among the applied discounts, if any carries one.
func largestDiscountedQuantityCap(discounts []catalog.AppliedDiscount) (int, bool) {
	largest := 0
	found := false
	for _, d := range discounts {
		if d.MaximumDiscountedQuantity == nil || *d.MaximumDiscountedQuantity < 1 {
			continue
		}
		if *d.MaximumDiscountedQuantity > largest {
			largest = *d.MaximumDiscountedQuantity
		}
		found = true
	}
	return largest, found
}
