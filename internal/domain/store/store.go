package store

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested store does not exist.
var ErrNotFound = errors.New("store not found")

// Store is a seller-owned storefront grouping products. New stores start
// unapproved; staff approval gates public visibility of the store and its
// products.
type Store struct {
	ID              string
	SellerID        string
	Name            string
	Slug            string
	Description     string
	Active          bool
	Approved        bool
	ApprovedAt      *time.Time
	RejectionReason string
	Suspended       bool
	CommissionRate  decimal.Decimal
	CreatedAt       time.Time
}

// Repository defines persistence operations for stores.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Store, error)
	// Approve marks the store approved at the given instant and clears any
	// previous rejection reason.
	Approve(ctx context.Context, id string, at time.Time) error
	// Reject marks the store unapproved and records the reason.
	Reject(ctx context.Context, id, reason string) error
}
