package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlabs/bazar/internal/domain/product"
)

type mockDiscountRepo struct {
	direct      []Discount
	category    []Discount
	directErr   error
	categoryErr error
}

func (m *mockDiscountRepo) DirectDiscounts(_ context.Context, _ string) ([]Discount, error) {
	return m.direct, m.directErr
}

func (m *mockDiscountRepo) CategoryDiscounts(_ context.Context, _ string) ([]Discount, error) {
	return m.category, m.categoryErr
}

func testProduct(price string, categoryID *string) *product.Product {
	return &product.Product{
		ID:         "p1",
		StoreID:    "s1",
		CategoryID: categoryID,
		Name:       "Widget",
		Price:      decimal.RequireFromString(price),
		Active:     true,
		Approved:   true,
	}
}

func TestResolver_NoDiscount(t *testing.T) {
	r := NewResolver(&mockDiscountRepo{})
	r.now = func() time.Time { return fixedNow }

	price, d, err := r.ResolvePrice(context.Background(), testProduct("42.00", nil))
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.True(t, decimal.RequireFromString("42.00").Equal(price))
}

func TestResolver_DirectDiscountApplied(t *testing.T) {
	direct := activeDiscount(KindPercentage, "25", 1)
	direct.ID = "d1"
	r := NewResolver(&mockDiscountRepo{direct: []Discount{direct}})
	r.now = func() time.Time { return fixedNow }

	price, d, err := r.ResolvePrice(context.Background(), testProduct("100.00", nil))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "d1", d.ID)
	assert.True(t, decimal.RequireFromString("75.00").Equal(price))
}

func TestResolver_CategoryConsultedWithoutDirect(t *testing.T) {
	cat := activeDiscount(KindFixed, "5.00", 1)
	cat.ID = "c1"
	categoryID := "electronics"
	r := NewResolver(&mockDiscountRepo{category: []Discount{cat}})
	r.now = func() time.Time { return fixedNow }

	price, d, err := r.ResolvePrice(context.Background(), testProduct("20.00", &categoryID))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "c1", d.ID)
	assert.True(t, decimal.RequireFromString("15.00").Equal(price))
}

func TestResolver_NoCategoryLookupWithoutCategory(t *testing.T) {
	// A product without a category must not trigger a category query.
	r := NewResolver(&mockDiscountRepo{categoryErr: errors.New("should not be called")})
	r.now = func() time.Time { return fixedNow }

	_, _, err := r.ResolvePrice(context.Background(), testProduct("20.00", nil))
	require.NoError(t, err)
}

func TestResolver_RepositoryError(t *testing.T) {
	r := NewResolver(&mockDiscountRepo{directErr: errors.New("db down")})
	r.now = func() time.Time { return fixedNow }

	_, _, err := r.ResolvePrice(context.Background(), testProduct("20.00", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct discounts")
}
