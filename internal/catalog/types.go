package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType discriminates pricing behaviour of a catalog item.
type ProductType string

const (
	// ProductTypeStandard is a plain catalog item.
	ProductTypeStandard ProductType = "standard"
	// ProductTypeBundled aggregates component products with their own quantities.
	ProductTypeBundled ProductType = "bundled"
	// ProductTypeReservation is priced per rental day.
	ProductTypeReservation ProductType = "reservation"
)

// CartType distinguishes the cart a line belongs to.
type CartType string

const (
	CartTypeShopping CartType = "shopping"
	CartTypeWishlist CartType = "wishlist"
)

// Customer carries the identity and group memberships relevant to pricing.
type Customer struct {
	ID       string
	GroupIDs []string
}

// InGroup reports whether the customer belongs to the given group.
func (c *Customer) InGroup(groupID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// ProductPrice is a fixed price scoped to a single currency.
type ProductPrice struct {
	CurrencyCode string
	Price        decimal.Decimal
}

// TierPrice is a quantity-threshold price override. Empty StoreID,
// CustomerGroupID, or CurrencyCode means unscoped.
type TierPrice struct {
	Quantity        int
	Price           decimal.Decimal
	CurrencyCode    string
	StoreID         string
	CustomerGroupID string
}

// AttributeValueKind discriminates how an attribute value contributes to price.
type AttributeValueKind string

const (
	// AttributeValueSimple carries a flat price adjustment.
	AttributeValueSimple AttributeValueKind = "simple"
	// AttributeValueAssociatedToProduct prices the value as another product.
	AttributeValueAssociatedToProduct AttributeValueKind = "associated_to_product"
)

// AttributeValue is a selectable option of a product attribute.
type AttributeValue struct {
	ID                  string
	AttributeID         string
	Kind                AttributeValueKind
	PriceAdjustment     decimal.Decimal
	Cost                decimal.Decimal
	AssociatedProductID string
	Quantity            int
}

// ProductAttribute maps an attribute and its values onto a product.
type ProductAttribute struct {
	ID     string
	Values []AttributeValue
}

// SelectedAttribute references one chosen value of one attribute on a cart line.
type SelectedAttribute struct {
	AttributeID string
	ValueID     string
}

// AttributeCombination fixes pricing for one specific selected-attribute set.
type AttributeCombination struct {
	ID              string
	Attributes      []SelectedAttribute
	OverriddenPrice *decimal.Decimal
	TierPrices      []TierPrice
}

// BundleItem references a component product of a bundle.
type BundleItem struct {
	ProductID string
	Quantity  int
}

// AppliedDiscount is a discount selected by discount resolution for a price.
type AppliedDiscount struct {
	DiscountID string
	Name       string
	// MaximumDiscountedQuantity caps how many units of a line the discount
	// covers. Nil means the discount covers the whole line.
	MaximumDiscountedQuantity *int
}

// Product is the pricing-relevant view of a catalog item. The pricing engine
// treats it as read-only.
type Product struct {
	ID                 string
	Name               string
	ProductType        ProductType
	Price              decimal.Decimal // base price in the primary store currency
	Cost               decimal.Decimal // native unit, never converted
	EnteredPrice       bool            // customer may specify an arbitrary price
	IncBothDate        bool            // rental day count includes both end dates
	CurrencyPrices     []ProductPrice
	TierPrices         []TierPrice
	Attributes         []ProductAttribute
	Combinations       []AttributeCombination
	BundleItems        []BundleItem
	AppliedDiscountIDs []string
}

// FixedPrice returns the currency-scoped fixed price for code, if one exists.
func (p *Product) FixedPrice(code string) (decimal.Decimal, bool) {
	if p == nil || code == "" {
		return decimal.Zero, false
	}
	for _, cp := range p.CurrencyPrices {
		if cp.CurrencyCode == code {
			return cp.Price, true
		}
	}
	return decimal.Zero, false
}

// AttributeValue resolves a cart line selection against the product's
// attribute mappings.
func (p *Product) AttributeValue(sel SelectedAttribute) (AttributeValue, bool) {
	if p == nil {
		return AttributeValue{}, false
	}
	for _, attr := range p.Attributes {
		if attr.ID != sel.AttributeID {
			continue
		}
		for _, v := range attr.Values {
			if v.ID == sel.ValueID {
				return v, true
			}
		}
	}
	return AttributeValue{}, false
}

// FindCombination returns the stored combination whose attribute set equals
// the given selection, or nil when no combination matches.
func (p *Product) FindCombination(selection []SelectedAttribute) *AttributeCombination {
	if p == nil || len(selection) == 0 {
		return nil
	}
	for i := range p.Combinations {
		if sameSelection(p.Combinations[i].Attributes, selection) {
			return &p.Combinations[i]
		}
	}
	return nil
}

func sameSelection(a, b []SelectedAttribute) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for _, sa := range a {
		found := false
		for _, sb := range b {
			if sa == sb {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PreferredTierPrice selects the tier with the highest quantity threshold not
// exceeding qty, after filtering by currency, store, and customer-group
// scope. Unscoped fields match everything. Ties on the threshold resolve to
// the lowest price. Returns nil when no tier applies.
func PreferredTierPrice(tiers []TierPrice, customer *Customer, storeID, currencyCode string, qty int) *TierPrice {
	if qty < 1 {
		qty = 1
	}
	var best *TierPrice
	for i := range tiers {
		tp := &tiers[i]
		if tp.Quantity > qty {
			continue
		}
		if tp.CurrencyCode != "" && tp.CurrencyCode != currencyCode {
			continue
		}
		if tp.StoreID != "" && tp.StoreID != storeID {
			continue
		}
		if tp.CustomerGroupID != "" && !customer.InGroup(tp.CustomerGroupID) {
			continue
		}
		if best == nil || tp.Quantity > best.Quantity ||
			(tp.Quantity == best.Quantity && tp.Price.LessThan(best.Price)) {
			best = tp
		}
	}
	return best
}

// CartItem is a shopping-cart line submitted for pricing.
type CartItem struct {
	ID           string
	ProductID    string
	CartType     CartType
	Quantity     int
	Attributes   []SelectedAttribute
	EnteredPrice *decimal.Decimal // in the primary currency, when the product allows it
	RentalStart  *time.Time
	RentalEnd    *time.Time
}
