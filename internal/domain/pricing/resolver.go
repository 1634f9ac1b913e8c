package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/bazarlabs/bazar/internal/domain/product"
)

// Repository provides the discount rules that may apply to a product.
type Repository interface {
	// DirectDiscounts returns the rules attached directly to the product.
	DirectDiscounts(ctx context.Context, productID string) ([]Discount, error)
	// CategoryDiscounts returns the rules attached to the category.
	CategoryDiscounts(ctx context.Context, categoryID string) ([]Discount, error)
}

// Resolver computes effective unit prices from persisted discount rules.
// Results depend on the current instant (discount windows open and close),
// so prices are resolved per call and never cached.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// ResolvePrice returns the effective unit price of p and the winning discount
// (nil when the base price applies). The result is rounded to 2 decimal places.
func (r *Resolver) ResolvePrice(ctx context.Context, p *product.Product) (decimal.Decimal, *Discount, error) {
	direct, err := r.repo.DirectDiscounts(ctx, p.ID)
	if err != nil {
		return decimal.Zero, nil, errors.Wrap(err, "direct discounts")
	}

	var category []Discount
	if p.CategoryID != nil {
		category, err = r.repo.CategoryDiscounts(ctx, *p.CategoryID)
		if err != nil {
			return decimal.Zero, nil, errors.Wrap(err, "category discounts")
		}
	}

	d := Select(direct, category, r.now())
	return Apply(p.Price, d).Round(2), d, nil
}
