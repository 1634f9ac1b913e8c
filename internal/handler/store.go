package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bazarlabs/bazar/internal/domain/store"
)

func (h *Handler) approveStore(c *gin.Context) {
	id := c.Param("id")
	if err := h.stores.Approve(c.Request.Context(), id, time.Now()); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approved": true})
}

type rejectStoreRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) rejectStore(c *gin.Context) {
	var req rejectStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "rejection reason required")
		return
	}

	id := c.Param("id")
	if err := h.stores.Reject(c.Request.Context(), id, req.Reason); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approved": false, "rejection_reason": req.Reason})
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "store not found")
		return
	}
	zctx.From(c.Request.Context()).Error("store operation failed", zap.Error(err))
	respondInternal(c)
}
