package handlers

import (
	"net/http"

	"backsync/internal/logger"
	"backsync/internal/sync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the admin-triggered sync operations.
type SyncHandler struct {
	dispatcher *sync.Dispatcher
	logger     *logger.Logger
}

func NewSyncHandler(dispatcher *sync.Dispatcher, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SyncAllProducts pushes the whole published catalog in one blocking pass.
func (h *SyncHandler) SyncAllProducts(c *gin.Context) {
	summary, err := h.dispatcher.SyncAllProducts(c.Request.Context())
	if err == sync.ErrNotConfigured {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API URL or API Key not configured."})
		return
	}
	if err != nil {
		h.logger.Error("Bulk product sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": summary.Message(),
		"total":   summary.Total,
		"synced":  summary.Synced,
		"errors":  summary.Errors,
	})
}

// SyncProduct re-pushes a single product; the outcome lands in the sync log.
func (h *SyncHandler) SyncProduct(c *gin.Context) {
	productID := c.Param("id")

	h.dispatcher.SyncProduct(c.Request.Context(), productID)

	c.JSON(http.StatusAccepted, gin.H{"message": "Product sync attempted; see the sync log for the outcome."})
}
