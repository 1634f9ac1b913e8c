package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
	"github.com/bazarlabs/bazar/internal/domain/pricing"
	"github.com/bazarlabs/bazar/internal/domain/product"
)

// Role is the caller's role as established by the transport layer.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleStaff    Role = "staff"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string
	Role   Role
}

// Store is the persistence port for orders. RunInTx executes fn inside a
// single database transaction; every Tx method sees and mutates state scoped
// to that transaction, so an error returned from fn discards all of it.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// SellerInOrder reports whether any item of the order belongs to a store
	// owned by the given seller.
	SellerInOrder(ctx context.Context, orderID, sellerUserID string) (bool, error)
}

// Tx exposes the statements order operations need inside one transaction.
type Tx interface {
	// ProductsForUpdate returns the products with the given IDs under row
	// locks held until the transaction ends, serializing concurrent stock
	// checks against the same rows.
	ProductsForUpdate(ctx context.Context, ids []string) ([]product.Product, error)
	DirectDiscounts(ctx context.Context, productID string) ([]pricing.Discount, error)
	CategoryDiscounts(ctx context.Context, categoryID string) ([]pricing.Discount, error)
	AddressExists(ctx context.Context, id, userID string) (bool, error)
	CouponByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	IncrementCouponUsed(ctx context.Context, id string) error
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID string, items []Item) error
	// AdjustStock adds delta (which may be negative) to the product's stock.
	AdjustStock(ctx context.Context, productID string, delta int) error
	// OrderForUpdate returns the order and its items under a row lock.
	// Returns ErrNotFound when no such order exists.
	OrderForUpdate(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SellerInOrder(ctx context.Context, orderID, sellerUserID string) (bool, error)
}

// ItemRequest names a product and quantity in a placement request.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID            string
	ShippingAddressID string
	BillingAddressID  string
	Items             []ItemRequest
	CouponCode        string
}

// Service implements order placement, cancellation, and status updates.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an order Service over the given persistence port.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// PlaceOrder validates the request, then atomically: locks the referenced
// product rows, resolves each item's effective unit price from the discount
// rules active right now, freezes those prices into order items, decrements
// stock, and applies an optional coupon against the subtotal. A coupon that
// fails validation is silently ignored — checkout proceeds at full subtotal.
// Any error rolls the entire transaction back: no order, no stock mutation,
// no coupon redemption.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: it.ProductID}
		}
		ids[i] = it.ProductID
	}

	var placed *Order
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		for _, addrID := range []string{req.ShippingAddressID, req.BillingAddressID} {
			ok, err := tx.AddressExists(ctx, addrID, req.UserID)
			if err != nil {
				return errors.Wrap(err, "check address")
			}
			if !ok {
				return &UnknownAddressError{AddressID: addrID}
			}
		}

		fetched, err := tx.ProductsForUpdate(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "lock products")
		}
		byID := make(map[string]*product.Product, len(fetched))
		for i := range fetched {
			byID[fetched[i].ID] = &fetched[i]
		}

		now := s.now()
		subtotal := decimal.Zero
		items := make([]Item, 0, len(req.Items))
		for _, it := range req.Items {
			p, ok := byID[it.ProductID]
			if !ok || !p.Purchasable() {
				return &ProductUnavailableError{ProductID: it.ProductID}
			}
			if p.StockQuantity < it.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: it.Quantity,
					Available: p.StockQuantity,
				}
			}

			unit, err := s.resolveUnitPrice(ctx, tx, p, now)
			if err != nil {
				return err
			}

			item := Item{
				ID:        uuid.New().String(),
				ProductID: p.ID,
				StoreID:   p.StoreID,
				Quantity:  it.Quantity,
				UnitPrice: unit,
			}
			items = append(items, item)
			subtotal = subtotal.Add(item.LineTotal())
		}
		subtotal = subtotal.Round(2)

		o := &Order{
			ID:                uuid.New().String(),
			Number:            NewNumber(),
			UserID:            req.UserID,
			Status:            StatusPending,
			PaymentStatus:     PaymentPending,
			Subtotal:          subtotal,
			DiscountAmount:    decimal.Zero,
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			Items:             items,
			CreatedAt:         now,
		}

		if req.CouponCode != "" {
			if err := s.applyCoupon(ctx, tx, o, req.CouponCode, now); err != nil {
				return err
			}
		}

		o.TotalAmount = o.Subtotal.Sub(o.DiscountAmount)
		if o.TotalAmount.IsNegative() {
			o.TotalAmount = decimal.Zero
		}

		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.InsertItems(ctx, o.ID, items); err != nil {
			return errors.Wrap(err, "insert items")
		}
		for _, item := range items {
			if err := tx.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				return errors.Wrapf(err, "decrement stock for %s", item.ProductID)
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// resolveUnitPrice computes the effective price of p from the discount rules
// visible to this transaction. Direct product discounts take strict
// precedence over category discounts.
func (s *Service) resolveUnitPrice(ctx context.Context, tx Tx, p *product.Product, now time.Time) (decimal.Decimal, error) {
	direct, err := tx.DirectDiscounts(ctx, p.ID)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "direct discounts for %s", p.ID)
	}
	var category []pricing.Discount
	if p.CategoryID != nil {
		category, err = tx.CategoryDiscounts(ctx, *p.CategoryID)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "category discounts for %s", p.ID)
		}
	}
	return pricing.Apply(p.Price, pricing.Select(direct, category, now)).Round(2), nil
}

// applyCoupon attempts to redeem code against the order's subtotal. Unknown,
// expired, exhausted, or below-minimum coupons never block checkout; only
// infrastructure failures propagate. On success the coupon is bound to the
// order and its usage counter incremented within the same transaction, so a
// later rollback also undoes the redemption.
func (s *Service) applyCoupon(ctx context.Context, tx Tx, o *Order, code string, now time.Time) error {
	c, err := tx.CouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "lookup coupon")
	}

	if !c.Usable(now) || o.Subtotal.LessThan(c.MinPurchase) {
		return nil
	}

	o.CouponID = &c.ID
	o.CouponCode = c.Code
	o.DiscountAmount = c.DiscountFor(o.Subtotal).Round(2)

	if err := tx.IncrementCouponUsed(ctx, c.ID); err != nil {
		return errors.Wrap(err, "increment coupon uses")
	}
	return nil
}

// Cancel cancels a pending order owned by userID, restoring every item's
// quantity to its product's stock. Ownership and state are checked under the
// order's row lock; the stock restore and status change are atomic.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (*Order, error) {
	var cancelled *Order
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOwner
		}
		if o.Status != StatusPending {
			return ErrNotCancellable
		}

		for _, item := range o.Items {
			if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return errors.Wrapf(err, "restore stock for %s", item.ProductID)
			}
		}
		if err := tx.UpdateStatus(ctx, o.ID, StatusCancelled); err != nil {
			return errors.Wrap(err, "update status")
		}

		o.Status = StatusCancelled
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// UpdateStatus replaces the order's status with any value from the enumerated
// set. Allowed for staff, or for a seller with at least one item in the
// order. No transition-adjacency validation is performed.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, actor Actor, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *Order
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		switch actor.Role {
		case RoleStaff:
		case RoleSeller:
			ok, err := tx.SellerInOrder(ctx, o.ID, actor.UserID)
			if err != nil {
				return errors.Wrap(err, "check seller involvement")
			}
			if !ok {
				return ErrPermissionDenied
			}
		default:
			return ErrPermissionDenied
		}

		if err := tx.UpdateStatus(ctx, o.ID, status); err != nil {
			return errors.Wrap(err, "update status")
		}
		o.Status = status
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns the order when the actor may see it: its owner, staff, or a
// seller with an item in it. Hidden orders surface as ErrNotFound rather
// than a permission error, so callers cannot probe for foreign order IDs.
func (s *Service) Get(ctx context.Context, orderID string, actor Actor) (*Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == RoleStaff, o.UserID == actor.UserID:
		return o, nil
	case actor.Role == RoleSeller:
		ok, err := s.store.SellerInOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "check seller involvement")
		}
		if ok {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

// ListForUser returns the actor's own orders.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.store.ListByUser(ctx, userID)
}
