package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested currency is not configured.
var ErrNotFound = errors.New("currency not found")

// Repository loads currency configuration from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a currency repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ByCode returns the currency identified by its ISO code.
func (r *Repository) ByCode(ctx context.Context, code string) (Currency, error) {
	const q = `SELECT code, rate, rounding FROM currencies WHERE code = $1`
	var (
		cur      Currency
		rate     decimal.Decimal
		rounding string
	)
	if err := r.pool.QueryRow(ctx, q, code).Scan(&cur.Code, &rate, &rounding); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Currency{}, fmt.Errorf("%s: %w", code, ErrNotFound)
		}
		return Currency{}, fmt.Errorf("get currency %s: %w", code, err)
	}
	cur.Rate = rate
	cur.Rounding = RoundingType(rounding)
	return cur, nil
}

// List returns all configured currencies ordered by code.
func (r *Repository) List(ctx context.Context) ([]Currency, error) {
	const q = `SELECT code, rate, rounding FROM currencies ORDER BY code`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()
	var out []Currency
	for rows.Next() {
		var (
			cur      Currency
			rounding string
		)
		if err := rows.Scan(&cur.Code, &cur.Rate, &rounding); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		cur.Rounding = RoundingType(rounding)
		out = append(out, cur)
	}
	return out, rows.Err()
}

// UpsertRate stores a fresh exchange rate for a currency code.
func (r *Repository) UpsertRate(ctx context.Context, code string, rate decimal.Decimal) error {
	const q = `
		INSERT INTO currencies (code, rate, rounding)
		VALUES ($1, $2, 'nearest_cent')
		ON CONFLICT (code) DO UPDATE SET rate = EXCLUDED.rate, updated_at = now()`
	if _, err := r.pool.Exec(ctx, q, code, rate); err != nil {
		return fmt.Errorf("upsert rate %s: %w", code, err)
	}
	return nil
}
