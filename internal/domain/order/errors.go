package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors. Authorization failures (ErrNotOwner, ErrPermissionDenied)
// are distinct from state failures (ErrNotCancellable) and from input
// validation; the HTTP layer maps each kind to a different status code.
var (
	ErrEmptyItems       = errors.New("items required")
	ErrNotFound         = errors.New("order not found")
	ErrNotOwner         = errors.New("order does not belong to user")
	ErrNotCancellable   = errors.New("only pending orders can be cancelled")
	ErrPermissionDenied = errors.New("not allowed to manage this order")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductUnavailableError indicates a referenced product that does not exist,
// is inactive, or has not been approved.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s not found or not available", e.ProductID)
}

// InsufficientStockError indicates a requested quantity above current stock.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// UnknownAddressError indicates a shipping or billing address that does not
// exist or does not belong to the ordering user.
type UnknownAddressError struct {
	AddressID string
}

func (e *UnknownAddressError) Error() string {
	return fmt.Sprintf("address %s not found", e.AddressID)
}
