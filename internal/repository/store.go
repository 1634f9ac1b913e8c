package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarlabs/bazar/internal/domain/store"
)

const (
	getStoreByIDSQL = `SELECT id, seller_id, name, slug, description, active, approved,
		approved_at, rejection_reason, suspended, commission_rate, created_at
		FROM stores WHERE id = $1`

	approveStoreSQL = `UPDATE stores
		SET approved = TRUE, approved_at = $2, rejection_reason = ''
		WHERE id = $1`

	rejectStoreSQL = `UPDATE stores
		SET approved = FALSE, approved_at = NULL, rejection_reason = $2
		WHERE id = $1`
)

var _ store.Repository = (*StoreRepository)(nil)

// StoreRepository implements store.Repository backed by PostgreSQL.
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository returns a StoreRepository that uses the given pool.
func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// GetByID returns a single store by its identifier.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*store.Store, error) {
	rows, err := r.pool.Query(ctx, getStoreByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting store %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanStore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting store %q: %w", id, err)
	}
	return &s, nil
}

// Approve marks the store approved at the given instant and clears any
// previous rejection reason.
func (r *StoreRepository) Approve(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, approveStoreSQL, id, at)
	if err != nil {
		return fmt.Errorf("approving store %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Reject marks the store unapproved and records the reason.
func (r *StoreRepository) Reject(ctx context.Context, id, reason string) error {
	tag, err := r.pool.Exec(ctx, rejectStoreSQL, id, reason)
	if err != nil {
		return fmt.Errorf("rejecting store %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanStore(row pgx.CollectableRow) (store.Store, error) {
	var s store.Store
	err := row.Scan(
		&s.ID, &s.SellerID, &s.Name, &s.Slug, &s.Description, &s.Active, &s.Approved,
		&s.ApprovedAt, &s.RejectionReason, &s.Suspended, &s.CommissionRate, &s.CreatedAt,
	)
	return s, err
}
