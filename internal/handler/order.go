package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazarlabs/bazar/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	ShippingAddressID string             `json:"shipping_address_id" binding:"required"`
	BillingAddressID  string             `json:"billing_address_id" binding:"required"`
	Items             []orderItemRequest `json:"items"`
	CouponCode        string             `json:"coupon_code"`
}

type orderItemResponse struct {
	ProductID string          `json:"product_id"`
	StoreID   string          `json:"store_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	Number         string              `json:"order_number"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	CouponCode     string              `json:"coupon_code,omitempty"`
	Items          []orderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
	}
	return orderResponse{
		ID:             o.ID,
		Number:         o.Number,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		CouponCode:     o.CouponCode,
		Items:          items,
		CreatedAt:      o.CreatedAt,
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := actorFrom(c)
	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), order.PlaceOrderRequest{
		UserID:            actor.UserID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		Items:             items,
		CouponCode:        req.CouponCode,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) listOrders(c *gin.Context) {
	list, err := h.orders.ListForUser(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	resp := make([]orderResponse, len(list))
	for i := range list {
		resp[i] = toOrderResponse(&list[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c).UserID)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), actorFrom(c), order.Status(req.Status))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// writeOrderError maps domain errors onto HTTP statuses: invalid input and
// unfulfillable requests are 400, authorization failures 403, unknown orders
// 404, everything else 500.
func writeOrderError(c *gin.Context, err error) {
	var (
		invalidQty   *order.InvalidQuantityError
		unavailable  *order.ProductUnavailableError
		noStock      *order.InsufficientStockError
		unknownAddr  *order.UnknownAddressError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrInvalidStatus),
		errors.As(err, &invalidQty),
		errors.As(err, &unavailable),
		errors.As(err, &noStock),
		errors.As(err, &unknownAddr):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotOwner),
		errors.Is(err, order.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "permission denied")
	case errors.Is(err, order.ErrNotFound):
		respondError(c, http.StatusNotFound, "order not found")
	default:
		zctx.From(c.Request.Context()).Error("order operation failed", zap.Error(err))
		respondInternal(c)
	}
}
