package discount

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads discount rules from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a discount repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RulesForProduct loads the rules behind the given discount ids. Unknown ids
// are silently absent from the result.
func (r *Repository) RulesForProduct(ctx context.Context, ids []string) ([]Rule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, name, kind, value, percent_bps, usage_limit, used_count,
		       valid_from, valid_to, store_id, customer_group_id, max_discounted_qty
		FROM discounts
		WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var (
			rule            Rule
			storeID         *string
			customerGroupID *string
		)
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Kind, &rule.Value, &rule.PercentBps,
			&rule.UsageLimit, &rule.UsedCount, &rule.ValidFrom, &rule.ValidTo,
			&storeID, &customerGroupID, &rule.MaximumDiscountedQuantity,
		); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		if storeID != nil {
			rule.StoreID = *storeID
		}
		if customerGroupID != nil {
			rule.CustomerGroupID = *customerGroupID
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
