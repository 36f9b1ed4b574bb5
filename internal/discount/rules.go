// Package discount evaluates catalog discount rules against a unit price.
package discount

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotActive is returned when a rule is used outside of its active window.
	ErrNotActive = errors.New("discount not active")
	// ErrExpired is returned when the rule's validity window has passed.
	ErrExpired = errors.New("discount expired")
	// ErrUsageLimitReached indicates the rule has exhausted its usage quota.
	ErrUsageLimitReached = errors.New("discount usage limit reached")
	// ErrScopeMismatch indicates the rule does not apply to the store or
	// customer group being priced.
	ErrScopeMismatch = errors.New("discount scope mismatch")
)

// Rule captures the runtime constraints of a catalog discount. Value is
// expressed in the primary store currency.
type Rule struct {
	ID                        string
	Name                      string
	Kind                      string
	Value                     decimal.Decimal
	PercentBps                *int32
	UsageLimit                *int32
	UsedCount                 int32
	ValidFrom                 *time.Time
	ValidTo                   *time.Time
	StoreID                   string
	CustomerGroupID           string
	MaximumDiscountedQuantity *int
}

// Validate ensures the rule can be applied at the provided instant for the
// given store and customer groups.
func (r Rule) Validate(now time.Time, storeID string, customerGroups []string) error {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrNotActive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.StoreID != "" && r.StoreID != storeID {
		return ErrScopeMismatch
	}
	if r.CustomerGroupID != "" && !containsGroup(customerGroups, r.CustomerGroupID) {
		return ErrScopeMismatch
	}
	return nil
}

func containsGroup(groups []string, id string) bool {
	for _, g := range groups {
		if g == id {
			return true
		}
	}
	return false
}

// Compute determines the amount a rule takes off the given price. Percent
// rules are resolved against the price; fixed rules return the configured
// value. The result never exceeds the price and is never negative.
func Compute(price decimal.Decimal, r Rule) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}
	amount := r.Value
	if strings.EqualFold(r.Kind, "percent") {
		if r.PercentBps == nil || *r.PercentBps <= 0 {
			return decimal.Zero
		}
		amount = price.Mul(decimal.NewFromInt32(*r.PercentBps)).Div(decimal.NewFromInt(10000))
	}
	if amount.GreaterThan(price) {
		amount = price
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
