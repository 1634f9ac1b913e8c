package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
)

type applyCouponRequest struct {
	Code   string          `json:"code" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type applyCouponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// applyCoupon previews a coupon against an order amount. Unlike checkout,
// where a bad coupon is silently skipped, this endpoint reports every
// validation failure so the customer can correct the code before paying.
func (h *Handler) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.coupons.Validate(c.Request.Context(), req.Code, req.Amount)
	if err != nil {
		var minErr *coupon.MinPurchaseError
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			respondError(c, http.StatusBadRequest, "invalid coupon code")
		case errors.Is(err, coupon.ErrInactiveOrExpired):
			respondError(c, http.StatusBadRequest, "coupon is inactive or expired")
		case errors.As(err, &minErr):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			zctx.From(c.Request.Context()).Error("apply coupon", zap.Error(err))
			respondInternal(c)
		}
		return
	}

	c.JSON(http.StatusOK, applyCouponResponse{
		Code:     res.Coupon.Code,
		Discount: res.Discount,
		Total:    decimal.Max(req.Amount.Sub(res.Discount), decimal.Zero),
	})
}
