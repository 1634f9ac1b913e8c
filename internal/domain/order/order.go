package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order. Pending orders normally move
// through processing, shipped, and delivered; cancelled and returned are
// alternate terminal states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// PaymentStatus tracks payment independently of fulfilment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is a customer purchase with frozen pricing. Status transitions are
// the only mutation after creation.
type Order struct {
	ID                string
	Number            string
	UserID            string
	Status            Status
	PaymentStatus     PaymentStatus
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	TotalAmount       decimal.Decimal
	CouponID          *string
	CouponCode        string
	ShippingAddressID string
	BillingAddressID  string
	Items             []Item
	CreatedAt         time.Time
}

// Item is a single order line. UnitPrice is the effective price at the moment
// of purchase and is never recomputed; StoreID records the store that owned
// the product at order time.
type Item struct {
	ID        string
	ProductID string
	StoreID   string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity * unit price.
func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewNumber generates a human-facing order number of the form
// ORD-XXXXXXXXXXXX (12 uppercase hex characters).
func NewNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:12])
}
