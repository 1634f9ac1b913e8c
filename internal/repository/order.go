package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
	"github.com/bazarlabs/bazar/internal/domain/order"
	"github.com/bazarlabs/bazar/internal/domain/pricing"
	"github.com/bazarlabs/bazar/internal/domain/product"
)

const (
	orderColumns = `id, order_number, user_id, status, payment_status, subtotal,
		discount_amount, total_amount, coupon_id, coupon_code,
		shipping_address_id, billing_address_id, created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderForUpdateSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersByUserSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	getOrderItemsSQL = `SELECT id, product_id, store_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	sellerInOrderSQL = `SELECT EXISTS (
		SELECT 1 FROM order_items oi
		JOIN stores s ON s.id = oi.store_id
		WHERE oi.order_id = $1 AND s.seller_id = $2
	)`

	productsForUpdateSQL = `SELECT id, store_id, category_id, name, slug, description,
		price, compare_at_price, stock_quantity, active, approved
		FROM products WHERE id = ANY($1) FOR UPDATE`

	addressExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2
	)`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, store_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	adjustStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2 WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. RunInTx maps the
// domain's transactional port onto a single pgx transaction, so locked stock
// checks, price resolution, coupon redemption, and the inserts commit or roll
// back together.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// RunInTx executes fn inside a database transaction. Any error from fn rolls
// the transaction back and is returned unchanged.
func (s *OrderStore) RunInTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetByID returns the order and its items.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, s.pool, getOrderByIDSQL, id)
}

// ListByUser returns the user's orders, newest first, without items.
func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// SellerInOrder reports whether any item of the order belongs to a store owned
// by the given seller.
func (s *OrderStore) SellerInOrder(ctx context.Context, orderID, sellerUserID string) (bool, error) {
	return sellerInOrder(ctx, s.pool, orderID, sellerUserID)
}

// orderTx adapts an open pgx transaction to order.Tx.
type orderTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*orderTx)(nil)

func (t *orderTx) ProductsForUpdate(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := t.tx.Query(ctx, productsForUpdateSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (t *orderTx) DirectDiscounts(ctx context.Context, productID string) ([]pricing.Discount, error) {
	return directDiscounts(ctx, t.tx, productID)
}

func (t *orderTx) CategoryDiscounts(ctx context.Context, categoryID string) ([]pricing.Discount, error) {
	return categoryDiscounts(ctx, t.tx, categoryID)
}

func (t *orderTx) AddressExists(ctx context.Context, id, userID string) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, addressExistsSQL, id, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking address %q: %w", id, err)
	}
	return exists, nil
}

func (t *orderTx) CouponByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return couponByCode(ctx, t.tx, code)
}

func (t *orderTx) IncrementCouponUsed(ctx context.Context, id string) error {
	return incrementCouponUsed(ctx, t.tx, id)
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Number, o.UserID, o.Status, o.PaymentStatus, o.Subtotal,
		o.DiscountAmount, o.TotalAmount, o.CouponID, o.CouponCode,
		o.ShippingAddressID, o.BillingAddressID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID string, items []order.Item) error {
	for _, item := range items {
		_, err := t.tx.Exec(ctx, insertOrderItemSQL,
			item.ID, orderID, item.ProductID, item.StoreID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting item for product %q: %w", item.ProductID, err)
		}
	}
	return nil
}

func (t *orderTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	_, err := t.tx.Exec(ctx, adjustStockSQL, productID, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock for %q by %d: %w", productID, delta, err)
	}
	return nil
}

func (t *orderTx) OrderForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, t.tx, getOrderForUpdateSQL, id)
}

func (t *orderTx) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := t.tx.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (t *orderTx) SellerInOrder(ctx context.Context, orderID, sellerUserID string) (bool, error) {
	return sellerInOrder(ctx, t.tx, orderID, sellerUserID)
}

func getOrder(ctx context.Context, q querier, sql, id string) (*order.Order, error) {
	rows, err := q.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := q.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %q: %w", id, err)
	}
	return &o, nil
}

func sellerInOrder(ctx context.Context, q querier, orderID, sellerUserID string) (bool, error) {
	rows, err := q.Query(ctx, sellerInOrderSQL, orderID, sellerUserID)
	if err != nil {
		return false, fmt.Errorf("checking seller %q in order %q: %w", sellerUserID, orderID, err)
	}
	involved, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("checking seller %q in order %q: %w", sellerUserID, orderID, err)
	}
	return involved, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &status, &paymentStatus, &o.Subtotal,
		&o.DiscountAmount, &o.TotalAmount, &o.CouponID, &o.CouponCode,
		&o.ShippingAddressID, &o.BillingAddressID, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var i order.Item
	err := row.Scan(&i.ID, &i.ProductID, &i.StoreID, &i.Quantity, &i.UnitPrice)
	return i, err
}
