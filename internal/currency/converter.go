package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoRate indicates a currency without a usable exchange rate.
var ErrNoRate = errors.New("currency has no exchange rate")

// Converter translates amounts between the primary store currency and a
// target currency using the rate carried on the Currency value.
type Converter struct {
	PrimaryCode string
}

// FromPrimary converts an amount expressed in the primary currency into the
// target currency.
func (c Converter) FromPrimary(_ context.Context, amount decimal.Decimal, target Currency) (decimal.Decimal, error) {
	if target.Code == c.PrimaryCode || target.Code == "" {
		return amount, nil
	}
	if !target.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("convert to %s: %w", target.Code, ErrNoRate)
	}
	return amount.Mul(target.Rate), nil
}

// ToPrimary converts an amount expressed in the source currency back into
// the primary currency.
func (c Converter) ToPrimary(_ context.Context, amount decimal.Decimal, source Currency) (decimal.Decimal, error) {
	if source.Code == c.PrimaryCode || source.Code == "" {
		return amount, nil
	}
	if !source.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("convert from %s: %w", source.Code, ErrNoRate)
	}
	return amount.Div(source.Rate), nil
}
