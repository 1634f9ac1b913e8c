package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazarlabs/bazar/internal/domain/product"
)

type productResponse struct {
	ID             string           `json:"id"`
	StoreID        string           `json:"store_id"`
	CategoryID     *string          `json:"category_id,omitempty"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	DiscountName   string           `json:"discount_name,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	StockQuantity  int              `json:"stock_quantity"`
}

func (h *Handler) toProductResponse(c *gin.Context, p *product.Product) (productResponse, error) {
	effective, d, err := h.resolver.ResolvePrice(c.Request.Context(), p)
	if err != nil {
		return productResponse{}, err
	}

	resp := productResponse{
		ID:             p.ID,
		StoreID:        p.StoreID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		EffectivePrice: effective,
		CompareAtPrice: p.CompareAtPrice,
		StockQuantity:  p.StockQuantity,
	}
	if d != nil {
		resp.DiscountName = d.Name
	}
	return resp, nil
}

func (h *Handler) listProducts(c *gin.Context) {
	list, err := h.products.List(c.Request.Context())
	if err != nil {
		zctx.From(c.Request.Context()).Error("list products", zap.Error(err))
		respondInternal(c)
		return
	}

	resp := make([]productResponse, len(list))
	for i := range list {
		resp[i], err = h.toProductResponse(c, &list[i])
		if err != nil {
			zctx.From(c.Request.Context()).Error("resolve price", zap.Error(err))
			respondInternal(c)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

type categoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parent_id,omitempty"`
}

func (h *Handler) listCategories(c *gin.Context) {
	list, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		zctx.From(c.Request.Context()).Error("list categories", zap.Error(err))
		respondInternal(c)
		return
	}

	resp := make([]categoryResponse, len(list))
	for i, cat := range list {
		resp[i] = categoryResponse{ID: cat.ID, Name: cat.Name, Slug: cat.Slug, ParentID: cat.ParentID}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(c, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(c.Request.Context()).Error("get product", zap.Error(err))
		respondInternal(c)
		return
	}

	resp, err := h.toProductResponse(c, p)
	if err != nil {
		zctx.From(c.Request.Context()).Error("resolve price", zap.Error(err))
		respondInternal(c)
		return
	}
	c.JSON(http.StatusOK, resp)
}
