package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// unmarshalSelection decodes the JSON attribute set stored on a combination
// row, shaped as [{"attribute_id": "...", "value_id": "..."}].
func unmarshalSelection(data []byte, dst *[]SelectedAttribute) error {
	var raw []struct {
		AttributeID string `json:"attribute_id"`
		ValueID     string `json:"value_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, entry := range raw {
		*dst = append(*dst, SelectedAttribute{AttributeID: entry.AttributeID, ValueID: entry.ValueID})
	}
	return nil
}

// Repository loads pricing-relevant catalog aggregates from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProductByID assembles the full product aggregate. A missing product is
// reported as (nil, nil).
func (r *Repository) ProductByID(ctx context.Context, id string) (*Product, error) {
	const q = `
		SELECT id, name, product_type, price, cost, entered_price, inc_both_date
		FROM products WHERE id = $1`
	p := &Product{}
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.ProductType, &p.Price, &p.Cost, &p.EnteredPrice, &p.IncBothDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if err := r.loadCurrencyPrices(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadTierPrices(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadAttributes(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadCombinations(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadBundleItems(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadDiscountIDs(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) loadCurrencyPrices(ctx context.Context, p *Product) error {
	const q = `SELECT currency_code, price FROM product_currency_prices WHERE product_id = $1`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list currency prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cp ProductPrice
		if err := rows.Scan(&cp.CurrencyCode, &cp.Price); err != nil {
			return fmt.Errorf("scan currency price: %w", err)
		}
		p.CurrencyPrices = append(p.CurrencyPrices, cp)
	}
	return rows.Err()
}

func (r *Repository) loadTierPrices(ctx context.Context, p *Product) error {
	const q = `
		SELECT quantity, price, COALESCE(currency_code, ''), COALESCE(store_id, ''), COALESCE(customer_group_id, '')
		FROM tier_prices WHERE product_id = $1 ORDER BY quantity`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list tier prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tp TierPrice
		if err := rows.Scan(&tp.Quantity, &tp.Price, &tp.CurrencyCode, &tp.StoreID, &tp.CustomerGroupID); err != nil {
			return fmt.Errorf("scan tier price: %w", err)
		}
		p.TierPrices = append(p.TierPrices, tp)
	}
	return rows.Err()
}

func (r *Repository) loadAttributes(ctx context.Context, p *Product) error {
	const q = `
		SELECT pa.id, av.id, av.kind, av.price_adjustment, av.cost,
		       COALESCE(av.associated_product_id, ''), av.quantity
		FROM product_attributes pa
		JOIN attribute_values av ON av.product_attribute_id = pa.id
		WHERE pa.product_id = $1
		ORDER BY pa.id`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			attrID string
			v      AttributeValue
		)
		if err := rows.Scan(&attrID, &v.ID, &v.Kind, &v.PriceAdjustment, &v.Cost, &v.AssociatedProductID, &v.Quantity); err != nil {
			return fmt.Errorf("scan attribute value: %w", err)
		}
		v.AttributeID = attrID
		n := len(p.Attributes)
		if n == 0 || p.Attributes[n-1].ID != attrID {
			p.Attributes = append(p.Attributes, ProductAttribute{ID: attrID})
			n++
		}
		p.Attributes[n-1].Values = append(p.Attributes[n-1].Values, v)
	}
	return rows.Err()
}

func (r *Repository) loadCombinations(ctx context.Context, p *Product) error {
	const q = `
		SELECT id, attributes, overridden_price
		FROM attribute_combinations WHERE product_id = $1`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list combinations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			comb  AttributeCombination
			attrs []byte
		)
		if err := rows.Scan(&comb.ID, &attrs, &comb.OverriddenPrice); err != nil {
			return fmt.Errorf("scan combination: %w", err)
		}
		if len(attrs) > 0 {
			if err := unmarshalSelection(attrs, &comb.Attributes); err != nil {
				return fmt.Errorf("decode combination %s: %w", comb.ID, err)
			}
		}
		p.Combinations = append(p.Combinations, comb)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range p.Combinations {
		if err := r.loadCombinationTiers(ctx, &p.Combinations[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) loadCombinationTiers(ctx context.Context, comb *AttributeCombination) error {
	const q = `
		SELECT quantity, price FROM combination_tier_prices
		WHERE combination_id = $1 ORDER BY quantity`
	rows, err := r.pool.Query(ctx, q, comb.ID)
	if err != nil {
		return fmt.Errorf("list combination tiers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tp TierPrice
		if err := rows.Scan(&tp.Quantity, &tp.Price); err != nil {
			return fmt.Errorf("scan combination tier: %w", err)
		}
		comb.TierPrices = append(comb.TierPrices, tp)
	}
	return rows.Err()
}

func (r *Repository) loadBundleItems(ctx context.Context, p *Product) error {
	const q = `SELECT component_product_id, quantity FROM bundle_items WHERE bundle_product_id = $1`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list bundle items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bi BundleItem
		if err := rows.Scan(&bi.ProductID, &bi.Quantity); err != nil {
			return fmt.Errorf("scan bundle item: %w", err)
		}
		p.BundleItems = append(p.BundleItems, bi)
	}
	return rows.Err()
}

func (r *Repository) loadDiscountIDs(ctx context.Context, p *Product) error {
	const q = `SELECT discount_id FROM product_discounts WHERE product_id = $1`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return fmt.Errorf("list product discounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan product discount: %w", err)
		}
		p.AppliedDiscountIDs = append(p.AppliedDiscountIDs, id)
	}
	return rows.Err()
}

// PriceForCustomer looks up the per-customer price for a product. No entry is
// reported as (nil, nil).
func (r *Repository) PriceForCustomer(ctx context.Context, customerID, productID string) (*decimal.Decimal, error) {
	const q = `SELECT price FROM customer_prices WHERE customer_id = $1 AND product_id = $2`
	var price decimal.Decimal
	if err := r.pool.QueryRow(ctx, q, customerID, productID).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer price: %w", err)
	}
	return &price, nil
}

// QuantityInCarts sums the quantities of a customer's cart lines holding the
// same product.
func (r *Repository) QuantityInCarts(ctx context.Context, customerID, productID string, cartType CartType) (int, error) {
	const q = `
		SELECT COALESCE(SUM(quantity), 0) FROM cart_items
		WHERE customer_id = $1 AND product_id = $2 AND cart_type = $3`
	var total int
	if err := r.pool.QueryRow(ctx, q, customerID, productID, string(cartType)).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum cart quantities: %w", err)
	}
	return total, nil
}

// CustomerByID loads a customer with their group memberships. A missing
// customer is reported as (nil, nil).
func (r *Repository) CustomerByID(ctx context.Context, id string) (*Customer, error) {
	const q = `SELECT id FROM customers WHERE id = $1`
	c := &Customer{}
	if err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	const groupsQ = `SELECT group_id FROM customer_group_members WHERE customer_id = $1 ORDER BY group_id`
	rows, err := r.pool.Query(ctx, groupsQ, id)
	if err != nil {
		return nil, fmt.Errorf("list customer groups: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("scan customer group: %w", err)
		}
		c.GroupIDs = append(c.GroupIDs, groupID)
	}
	return c, rows.Err()
}
