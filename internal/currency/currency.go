package currency

import "github.com/shopspring/decimal"

// RoundingType selects the rounding policy applied to final prices in a
// currency. Increment policies snap to the nearest lower (down) or higher
// (up) multiple of the increment; amounts already on the increment are left
// untouched, which keeps rounding idempotent.
type RoundingType string

const (
	// RoundNearestCent rounds half away from zero to two decimal places.
	RoundNearestCent RoundingType = "nearest_cent"
	Round005Up       RoundingType = "0.05_up"
	Round005Down     RoundingType = "0.05_down"
	Round01Up        RoundingType = "0.1_up"
	Round01Down      RoundingType = "0.1_down"
	Round05Up        RoundingType = "0.5_up"
	Round05Down      RoundingType = "0.5_down"
	Round1Up         RoundingType = "1_up"
	Round1Down       RoundingType = "1_down"
)

// Currency is the pricing engine's conversion and rounding target. Rate is
// expressed as units of this currency per one unit of the primary store
// currency; the primary currency itself carries a rate of 1.
type Currency struct {
	Code     string
	Rate     decimal.Decimal
	Rounding RoundingType
}

var one = decimal.NewFromInt(1)

// Round applies the currency's rounding policy to an amount.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	increment, up := c.Rounding.policy()
	if increment.IsZero() {
		return amount.Round(2)
	}
	rem := amount.Mod(increment)
	if rem.IsZero() {
		return amount
	}
	down := amount.Sub(rem)
	if up {
		return down.Add(increment)
	}
	return down
}

func (t RoundingType) policy() (increment decimal.Decimal, up bool) {
	switch t {
	case Round005Up:
		return decimal.New(5, -2), true
	case Round005Down:
		return decimal.New(5, -2), false
	case Round01Up:
		return decimal.New(1, -1), true
	case Round01Down:
		return decimal.New(1, -1), false
	case Round05Up:
		return decimal.New(5, -1), true
	case Round05Down:
		return decimal.New(5, -1), false
	case Round1Up:
		return one, true
	case Round1Down:
		return one, false
	default:
		return decimal.Zero, false
	}
}
