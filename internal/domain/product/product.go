package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item offered by a store.
type Product struct {
	ID             string
	StoreID        string
	CategoryID     *string
	Name           string
	Slug           string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	StockQuantity  int
	Active         bool
	Approved       bool
}

// Purchasable reports whether the product may appear in an order:
// it must be active and have passed the approval workflow.
func (p *Product) Purchasable() bool {
	return p.Active && p.Approved
}

// Category groups products. Categories form a hierarchy through ParentID.
type Category struct {
	ID       string
	Name     string
	Slug     string
	ParentID *string
	Active   bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// List returns the publicly visible catalog: active, approved products.
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// ListCategories returns all active categories.
	ListCategories(ctx context.Context) ([]Category, error)
}
