package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
	"github.com/bazarlabs/bazar/internal/domain/order"
	"github.com/bazarlabs/bazar/internal/domain/pricing"
	"github.com/bazarlabs/bazar/internal/domain/product"
	"github.com/bazarlabs/bazar/internal/domain/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("test-secret")

// --- Fakes ---

// memStore is an in-memory order.Store. Mutations apply directly; rollback
// fidelity is covered by the order service tests, the handler tests only care
// about status codes and response bodies.
type memStore struct {
	products  map[string]*product.Product
	direct    map[string][]pricing.Discount
	addresses map[string]string
	coupons   map[string]*coupon.Coupon
	orders    map[string]*order.Order
	sellers   map[string]string // store ID -> seller user ID
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*product.Product),
		direct:    make(map[string][]pricing.Discount),
		addresses: make(map[string]string),
		coupons:   make(map[string]*coupon.Coupon),
		orders:    make(map[string]*order.Order),
		sellers:   make(map[string]string),
	}
}

func (m *memStore) RunInTx(_ context.Context, fn func(tx order.Tx) error) error {
	return fn(&memTx{m})
}

func (m *memStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) SellerInOrder(_ context.Context, orderID, sellerUserID string) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, item := range o.Items {
		if m.sellers[item.StoreID] == sellerUserID {
			return true, nil
		}
	}
	return false, nil
}

type memTx struct {
	m *memStore
}

func (t *memTx) ProductsForUpdate(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := t.m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *memTx) DirectDiscounts(_ context.Context, productID string) ([]pricing.Discount, error) {
	return t.m.direct[productID], nil
}

func (t *memTx) CategoryDiscounts(_ context.Context, _ string) ([]pricing.Discount, error) {
	return nil, nil
}

func (t *memTx) AddressExists(_ context.Context, id, userID string) (bool, error) {
	return t.m.addresses[id] == userID, nil
}

func (t *memTx) CouponByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := t.m.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (t *memTx) IncrementCouponUsed(_ context.Context, id string) error {
	for _, c := range t.m.coupons {
		if c.ID == id {
			c.UsedCount++
		}
	}
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *order.Order) error {
	cp := *o
	t.m.orders[o.ID] = &cp
	return nil
}

func (t *memTx) InsertItems(_ context.Context, orderID string, items []order.Item) error {
	t.m.orders[orderID].Items = items
	return nil
}

func (t *memTx) AdjustStock(_ context.Context, productID string, delta int) error {
	t.m.products[productID].StockQuantity += delta
	return nil
}

func (t *memTx) OrderForUpdate(_ context.Context, id string) (*order.Order, error) {
	o, ok := t.m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) UpdateStatus(_ context.Context, id string, status order.Status) error {
	o, ok := t.m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *memTx) SellerInOrder(ctx context.Context, orderID, sellerUserID string) (bool, error) {
	return t.m.SellerInOrder(ctx, orderID, sellerUserID)
}

type memProductRepo struct {
	m *memStore
}

func (r *memProductRepo) List(_ context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range r.m.products {
		if p.Purchasable() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := r.m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return (&memTx{r.m}).ProductsForUpdate(ctx, ids)
}

func (r *memProductRepo) ListCategories(_ context.Context) ([]product.Category, error) {
	return []product.Category{{ID: "cat-1", Name: "Gadgets", Slug: "gadgets", Active: true}}, nil
}

type memDiscountRepo struct {
	m *memStore
}

func (r *memDiscountRepo) DirectDiscounts(_ context.Context, productID string) ([]pricing.Discount, error) {
	return r.m.direct[productID], nil
}

func (r *memDiscountRepo) CategoryDiscounts(_ context.Context, _ string) ([]pricing.Discount, error) {
	return nil, nil
}

type memCouponRepo struct {
	m *memStore
}

func (r *memCouponRepo) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return (&memTx{r.m}).CouponByCode(ctx, code)
}

func (r *memCouponRepo) IncrementUsed(ctx context.Context, id string) error {
	return (&memTx{r.m}).IncrementCouponUsed(ctx, id)
}

type memStoreRepo struct {
	stores map[string]*store.Store
}

func (r *memStoreRepo) GetByID(_ context.Context, id string) (*store.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (r *memStoreRepo) Approve(_ context.Context, id string, at time.Time) error {
	s, ok := r.stores[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Approved = true
	s.ApprovedAt = &at
	s.RejectionReason = ""
	return nil
}

func (r *memStoreRepo) Reject(_ context.Context, id, reason string) error {
	s, ok := r.stores[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Approved = false
	s.RejectionReason = reason
	return nil
}

// --- Test harness ---

type env struct {
	store      *memStore
	storeRepo  *memStoreRepo
	router     http.Handler
}

func newEnv() *env {
	m := newMemStore()
	m.addresses["addr-1"] = "user-1"
	m.sellers["store-1"] = "seller-1"
	m.products["p1"] = &product.Product{
		ID:            "p1",
		StoreID:       "store-1",
		Name:          "Widget",
		Slug:          "widget",
		Price:         decimal.RequireFromString("100.00"),
		StockQuantity: 10,
		Active:        true,
		Approved:      true,
	}

	storeRepo := &memStoreRepo{stores: map[string]*store.Store{
		"store-2": {ID: "store-2", SellerID: "seller-2", Name: "New Shop"},
	}}

	h := NewHandler(
		&memProductRepo{m},
		pricing.NewResolver(&memDiscountRepo{m}),
		coupon.NewRepoValidator(&memCouponRepo{m}),
		order.NewService(m),
		storeRepo,
		NewAuthenticator(testSecret),
	)
	return &env{store: m, storeRepo: storeRepo, router: h.Router()}
}

func signToken(t *testing.T, userID string, role order.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: string(role),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (e *env) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

const createOrderBody = `{
	"shipping_address_id": "addr-1",
	"billing_address_id": "addr-1",
	"items": [{"product_id": "p1", "quantity": 2}]
}`

// --- Tests ---

func TestCreateOrder_Success(t *testing.T) {
	e := newEnv()
	token := signToken(t, "user-1", order.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/api/orders", createOrderBody, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Number      string `json:"order_number"`
		Status      string `json:"status"`
		Subtotal    string `json:"subtotal"`
		TotalAmount string `json:"total_amount"`
		Items       []struct {
			UnitPrice string `json:"unit_price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Number, "ORD-"))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "200", resp.Subtotal)
	assert.Equal(t, "200", resp.TotalAmount)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "100", resp.Items[0].UnitPrice)

	assert.Equal(t, 8, e.store.products["p1"].StockQuantity)
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/api/orders", createOrderBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/orders", createOrderBody, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	e := newEnv()
	token := signToken(t, "user-1", order.RoleCustomer)

	body := `{
		"shipping_address_id": "addr-1",
		"billing_address_id": "addr-1",
		"items": [{"product_id": "p1", "quantity": 11}]
	}`
	rec := e.do(t, http.MethodPost, "/api/orders", body, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough stock")
	assert.Equal(t, 10, e.store.products["p1"].StockQuantity)
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	e := newEnv()
	token := signToken(t, "user-1", order.RoleCustomer)

	body := `{"shipping_address_id": "addr-1", "billing_address_id": "addr-1", "items": []}`
	rec := e.do(t, http.MethodPost, "/api/orders", body, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "items required")
}

func placeOrder(t *testing.T, e *env) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/orders", createOrderBody, signToken(t, "user-1", order.RoleCustomer))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestGetOrder_Visibility(t *testing.T) {
	e := newEnv()
	id := placeOrder(t, e)

	rec := e.do(t, http.MethodGet, "/api/orders/"+id, "", signToken(t, "user-1", order.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Foreign orders read as missing, not forbidden.
	rec = e.do(t, http.MethodGet, "/api/orders/"+id, "", signToken(t, "user-2", order.RoleCustomer))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/orders/"+id, "", signToken(t, "seller-1", order.RoleSeller))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/orders/"+id, "", signToken(t, "staff-1", order.RoleStaff))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	e := newEnv()
	id := placeOrder(t, e)

	// Wrong user.
	rec := e.do(t, http.MethodPost, "/api/orders/"+id+"/cancel", "", signToken(t, "user-2", order.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Owner cancels; stock returns.
	rec = e.do(t, http.MethodPost, "/api/orders/"+id+"/cancel", "", signToken(t, "user-1", order.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.Equal(t, 10, e.store.products["p1"].StockQuantity)

	// A cancelled order cannot be cancelled again.
	rec = e.do(t, http.MethodPost, "/api/orders/"+id+"/cancel", "", signToken(t, "user-1", order.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	e := newEnv()
	id := placeOrder(t, e)

	body := `{"status": "processing"}`

	rec := e.do(t, http.MethodPatch, "/api/orders/"+id+"/status", body, signToken(t, "user-1", order.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+id+"/status", body, signToken(t, "seller-2", order.RoleSeller))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+id+"/status", body, signToken(t, "staff-1", order.RoleStaff))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+id+"/status", `{"status": "teleported"}`, signToken(t, "staff-1", order.RoleStaff))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyCoupon(t *testing.T) {
	e := newEnv()
	now := time.Now()
	e.store.coupons["WELCOME20"] = &coupon.Coupon{
		ID: "c1", Code: "WELCOME20", Kind: coupon.KindFixed,
		Value:     decimal.RequireFromString("20.00"),
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true,
	}
	token := signToken(t, "user-1", order.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/api/coupons/apply", `{"code": "WELCOME20", "amount": "75.00"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"discount":"20"`)
	assert.Contains(t, rec.Body.String(), `"total":"55"`)
	assert.Equal(t, 0, e.store.coupons["WELCOME20"].UsedCount, "preview must not redeem")

	rec = e.do(t, http.MethodPost, "/api/coupons/apply", `{"code": "NOPE", "amount": "75.00"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid coupon code")
}

func TestProducts(t *testing.T) {
	e := newEnv()
	now := time.Now()
	e.store.direct["p1"] = []pricing.Discount{{
		ID: "d1", Name: "Spring Sale", Kind: pricing.KindPercentage,
		Value:     decimal.NewFromInt(25),
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		Active: true, Priority: 1,
	}}

	rec := e.do(t, http.MethodGet, "/api/products/p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":"100"`)
	assert.Contains(t, rec.Body.String(), `"effective_price":"75"`)
	assert.Contains(t, rec.Body.String(), `"discount_name":"Spring Sale"`)

	rec = e.do(t, http.MethodGet, "/api/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"p1"`)

	rec = e.do(t, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"gadgets"`)
}

func TestStoreApproval(t *testing.T) {
	e := newEnv()

	// Staff only.
	rec := e.do(t, http.MethodPost, "/api/stores/store-2/approve", "", signToken(t, "seller-2", order.RoleSeller))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	staff := signToken(t, "staff-1", order.RoleStaff)
	rec = e.do(t, http.MethodPost, "/api/stores/store-2/approve", "", staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, e.storeRepo.stores["store-2"].Approved)

	rec = e.do(t, http.MethodPost, "/api/stores/store-2/reject", `{"reason": "missing tax info"}`, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, e.storeRepo.stores["store-2"].Approved)
	assert.Equal(t, "missing tax info", e.storeRepo.stores["store-2"].RejectionReason)

	rec = e.do(t, http.MethodPost, "/api/stores/missing/approve", "", staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
