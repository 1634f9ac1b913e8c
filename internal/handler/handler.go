// Package handler exposes the HTTP API over a gin router.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazarlabs/bazar/internal/domain/coupon"
	"github.com/bazarlabs/bazar/internal/domain/order"
	"github.com/bazarlabs/bazar/internal/domain/pricing"
	"github.com/bazarlabs/bazar/internal/domain/product"
	"github.com/bazarlabs/bazar/internal/domain/store"
)

// Handler wires the domain services into HTTP routes.
type Handler struct {
	products product.Repository
	resolver *pricing.Resolver
	coupons  coupon.Validator
	orders   *order.Service
	stores   store.Repository
	auth     *Authenticator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	resolver *pricing.Resolver,
	coupons coupon.Validator,
	orders *order.Service,
	stores store.Repository,
	auth *Authenticator,
) *Handler {
	return &Handler{
		products: products,
		resolver: resolver,
		coupons:  coupons,
		orders:   orders,
		stores:   stores,
		auth:     auth,
	}
}

// Router builds the gin engine with all API routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()

	api := r.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.GET("/categories", h.listCategories)

		authed := api.Group("", h.auth.Require())
		{
			authed.POST("/orders", h.createOrder)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
			authed.POST("/orders/:id/cancel", h.cancelOrder)
			authed.PATCH("/orders/:id/status", h.updateOrderStatus)

			authed.POST("/coupons/apply", h.applyCoupon)

			staff := authed.Group("", RequireRole(order.RoleStaff))
			{
				staff.POST("/stores/:id/approve", h.approveStore)
				staff.POST("/stores/:id/reject", h.rejectStore)
			}
		}
	}

	return r
}

// errorResponse is the uniform error body for all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: status, Message: message})
}

func respondInternal(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "internal error")
}
