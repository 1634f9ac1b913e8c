package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarlabs/bazar/internal/domain/pricing"
)

const (
	discountColumns = `d.id, d.name, d.kind, d.value, d.start_date, d.end_date, d.active, d.priority`

	directDiscountsSQL = `SELECT ` + discountColumns + `
		FROM discounts d
		JOIN discount_products dp ON dp.discount_id = d.id
		WHERE dp.product_id = $1`

	categoryDiscountsSQL = `SELECT ` + discountColumns + `
		FROM discounts d
		JOIN discount_categories dc ON dc.discount_id = d.id
		WHERE dc.category_id = $1`
)

var _ pricing.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements pricing.Repository backed by PostgreSQL.
// Filtering by activity and validity window is the domain's job; the queries
// return every rule attached to the product or category.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// DirectDiscounts returns the rules attached directly to the product.
func (r *DiscountRepository) DirectDiscounts(ctx context.Context, productID string) ([]pricing.Discount, error) {
	return directDiscounts(ctx, r.pool, productID)
}

// CategoryDiscounts returns the rules attached to the category.
func (r *DiscountRepository) CategoryDiscounts(ctx context.Context, categoryID string) ([]pricing.Discount, error) {
	return categoryDiscounts(ctx, r.pool, categoryID)
}

// The helpers below run against either the pool or an open transaction, so
// order placement resolves prices with the same statements under its row locks.

func directDiscounts(ctx context.Context, q querier, productID string) ([]pricing.Discount, error) {
	rows, err := q.Query(ctx, directDiscountsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("getting direct discounts for %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

func categoryDiscounts(ctx context.Context, q querier, categoryID string) ([]pricing.Discount, error) {
	rows, err := q.Query(ctx, categoryDiscountsSQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("getting category discounts for %q: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

func scanDiscount(row pgx.CollectableRow) (pricing.Discount, error) {
	var (
		d    pricing.Discount
		kind string
	)
	err := row.Scan(&d.ID, &d.Name, &kind, &d.Value, &d.StartDate, &d.EndDate, &d.Active, &d.Priority)
	d.Kind = pricing.Kind(kind)
	return d, err
}
