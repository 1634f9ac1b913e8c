package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Result holds the outcome of a successful coupon validation.
type Result struct {
	Coupon   *Coupon
	Discount decimal.Decimal
}

// Validator checks a coupon code against an order amount and computes the
// discount it grants. Validation performs no mutation: redeeming the coupon
// (incrementing its usage counter) belongs to whoever binds it to a
// successfully created order.
type Validator interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*Result, error)
}

// RepoValidator implements Validator by looking coupons up in a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for code and checks, in order: existence,
// redeemability (active, window, usage limit), and the minimum purchase
// constraint against amount. On success the computed discount is rounded to
// 2 decimal places.
func (v *RepoValidator) Validate(ctx context.Context, code string, amount decimal.Decimal) (*Result, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.Usable(v.now()) {
		return nil, ErrInactiveOrExpired
	}

	if amount.LessThan(c.MinPurchase) {
		return nil, &MinPurchaseError{Required: c.MinPurchase}
	}

	return &Result{
		Coupon:   c,
		Discount: c.DiscountFor(amount).Round(2),
	}, nil
}
