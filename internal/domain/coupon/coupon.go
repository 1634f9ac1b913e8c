package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage discounts a percentage of the order amount.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a fixed amount, capped at the order amount.
	KindFixed Kind = "fixed"
)

var (
	// ErrNotFound is returned when no coupon matches the given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactiveOrExpired is returned when a coupon exists but cannot be
	// redeemed: disabled, outside its validity window, or out of uses.
	ErrInactiveOrExpired = errors.New("coupon inactive or expired")
)

// MinPurchaseError indicates the order amount is below the coupon's minimum.
type MinPurchaseError struct {
	Required decimal.Decimal
}

func (e *MinPurchaseError) Error() string {
	return fmt.Sprintf("minimum purchase amount of %s required", e.Required.StringFixed(2))
}

// Coupon is a user-entered code producing an order-level discount.
type Coupon struct {
	ID          string
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	// UsageLimit is the total number of redemptions allowed across all
	// users; nil means unlimited.
	UsageLimit *int
	UsedCount  int
	// UserLimit caps redemptions per user. The field is persisted but not
	// enforced anywhere yet.
	UserLimit int
	// StoreID scopes the coupon to one store; nil means platform-wide.
	StoreID *string
	Active  bool
}

// Usable reports whether the coupon can be redeemed at instant now.
// Both window bounds are inclusive.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartDate.After(now) || c.EndDate.Before(now) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount the coupon grants on amount. Fixed-amount
// coupons never exceed the amount itself; percentage coupons are bounded only
// by their percentage.
func (c *Coupon) DiscountFor(amount decimal.Decimal) decimal.Decimal {
	if c.Kind == KindPercentage {
		return amount.Mul(c.Value).Div(hundred)
	}
	return decimal.Min(c.Value, amount)
}

var hundred = decimal.NewFromInt(100)

// Repository provides lookup and redemption counting for coupons.
type Repository interface {
	// FindByCode looks a coupon up by exact code match.
	// Returns ErrNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUsed adds one redemption to the coupon's usage counter.
	IncrementUsed(ctx context.Context, id string) error
}
