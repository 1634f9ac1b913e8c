package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
)

const (
	couponColumns = `id, code, kind, value, min_purchase, start_date, end_date,
		usage_limit, used_count, user_limit, store_id, active`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE code = $1`

	incrementCouponUsedSQL = `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks a coupon up by exact code match.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return couponByCode(ctx, r.pool, code)
}

// IncrementUsed atomically adds one redemption to the coupon's usage counter.
func (r *CouponRepository) IncrementUsed(ctx context.Context, id string) error {
	return incrementCouponUsed(ctx, r.pool, id)
}

func couponByCode(ctx context.Context, q querier, code string) (*coupon.Coupon, error) {
	rows, err := q.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

func incrementCouponUsed(ctx context.Context, q querier, id string) error {
	_, err := q.Exec(ctx, incrementCouponUsedSQL, id)
	if err != nil {
		return fmt.Errorf("incrementing used count for coupon %q: %w", id, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		kind string
	)
	err := row.Scan(
		&c.ID, &c.Code, &kind, &c.Value, &c.MinPurchase, &c.StartDate, &c.EndDate,
		&c.UsageLimit, &c.UsedCount, &c.UserLimit, &c.StoreID, &c.Active,
	)
	c.Kind = coupon.Kind(kind)
	return c, err
}
