package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the supported automatic discount strategies.
type Kind string

const (
	// KindPercentage reduces the price by a percentage of its value.
	KindPercentage Kind = "percentage"
	// KindFixed subtracts a fixed monetary amount, floored at zero.
	KindFixed Kind = "fixed"
)

// Discount is an automatic, non-code-based price reduction attached to a set
// of products and/or categories. Whether a given Discount is a direct product
// discount or a category discount is determined by how it was fetched; the
// rule itself carries no scope.
type Discount struct {
	ID        string
	Name      string
	Kind      Kind
	Value     decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
	Active    bool
	Priority  int
}

// Qualifies reports whether the discount may be applied at instant now.
// Both window bounds are inclusive.
func (d *Discount) Qualifies(now time.Time) bool {
	return d.Active && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// Preferred reports whether a wins over b: higher priority first,
// then the more recently started rule.
func Preferred(a, b *Discount) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.StartDate.After(b.StartDate)
}

// Pick returns the winning discount among the candidates qualifying at now,
// or nil when none qualify.
func Pick(candidates []Discount, now time.Time) *Discount {
	var best *Discount
	for i := range candidates {
		d := &candidates[i]
		if !d.Qualifies(now) {
			continue
		}
		if best == nil || Preferred(d, best) {
			best = d
		}
	}
	return best
}

// Select picks the applicable discount with direct-over-category precedence:
// category candidates are consulted only when no direct candidate qualifies.
func Select(direct, category []Discount, now time.Time) *Discount {
	if d := Pick(direct, now); d != nil {
		return d
	}
	return Pick(category, now)
}

var hundred = decimal.NewFromInt(100)

// Apply returns the unit price after applying d to base. A nil discount
// leaves the base price unchanged. Percentage discounts compute
// base * (100 - value) / 100 in decimal space; fixed discounts floor at zero.
func Apply(base decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return base
	}
	switch d.Kind {
	case KindPercentage:
		return base.Mul(hundred.Sub(d.Value)).Div(hundred)
	case KindFixed:
		price := base.Sub(d.Value)
		if price.IsNegative() {
			return decimal.Zero
		}
		return price
	default:
		return base
	}
}
