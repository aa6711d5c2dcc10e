package handlers

import (
	"net/http"

	"backsync/internal/events"
	"backsync/internal/logger"
	"backsync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WebhookHandler receives storefront lifecycle callbacks, mirrors the
// entity locally and publishes the matching event for the worker. The
// storefront is always acknowledged: sync outcomes never travel back.
type WebhookHandler struct {
	db        *gorm.DB
	publisher events.EventPublisher
	logger    *logger.Logger
}

func NewWebhookHandler(db *gorm.DB, publisher events.EventPublisher, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		db:        db,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *WebhookHandler) ProductUpserted(c *gin.Context) {
	var payload struct {
		ProductID    string `json:"product_id" binding:"required"`
		Name         string `json:"name" binding:"required"`
		RegularPrice string `json:"regular_price"`
		Status       string `json:"status"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Status == "" {
		payload.Status = string(models.ProductStatusPublish)
	}

	var product models.Product
	err := h.db.First(&product, "external_id = ?", payload.ProductID).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		product = models.Product{
			ExternalID:   payload.ProductID,
			Name:         payload.Name,
			RegularPrice: payload.RegularPrice,
			Status:       payload.Status,
		}
		if err := h.db.Create(&product).Error; err != nil {
			h.logger.Error("Failed to create product %s: %v", payload.ProductID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store product"})
			return
		}
	case err == nil:
		product.Name = payload.Name
		product.RegularPrice = payload.RegularPrice
		product.Status = payload.Status
		if err := h.db.Save(&product).Error; err != nil {
			h.logger.Error("Failed to update product %s: %v", payload.ProductID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store product"})
			return
		}
	default:
		h.logger.Error("Database error for product %s: %v", payload.ProductID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store product"})
		return
	}

	h.publish(c, events.Event{Type: events.TypeProductUpdated, EntityID: payload.ProductID})
	c.JSON(http.StatusOK, gin.H{"message": "Product event accepted"})
}

func (h *WebhookHandler) OrderCompleted(c *gin.Context) {
	var payload struct {
		OrderID      string  `json:"order_id" binding:"required"`
		UserID       *string `json:"user_id"`
		BillingEmail string  `json:"billing_email"`
		Items        []struct {
			ProductID string `json:"product_id" binding:"required"`
			Quantity  int    `json:"quantity"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order
	err := h.db.First(&order, "external_id = ?", payload.OrderID).Error
	if err == gorm.ErrRecordNotFound {
		order = models.Order{
			ExternalID:   payload.OrderID,
			UserID:       payload.UserID,
			BillingEmail: payload.BillingEmail,
		}
		for _, item := range payload.Items {
			quantity := item.Quantity
			if quantity == 0 {
				quantity = 1
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductExternalID: item.ProductID,
				Quantity:          quantity,
			})
		}
		if err := h.db.Create(&order).Error; err != nil {
			h.logger.Error("Failed to create order %s: %v", payload.OrderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store order"})
			return
		}
	} else if err != nil {
		h.logger.Error("Database error for order %s: %v", payload.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store order"})
		return
	}
	// A known order keeps its stored items and, critically, its sync
	// status: duplicate completion events are how retries happen.

	h.publish(c, events.Event{Type: events.TypeOrderCompleted, EntityID: payload.OrderID})
	c.JSON(http.StatusOK, gin.H{"message": "Order event accepted"})
}

func (h *WebhookHandler) UserUpdated(c *gin.Context) {
	var payload struct {
		UserID   string `json:"user_id" binding:"required"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", payload.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	previous := models.UserSnapshot{UserID: user.ID, Username: user.Username, Email: user.Email}

	if payload.Email != "" {
		user.Email = payload.Email
	}
	if payload.Username != "" {
		user.Username = payload.Username
	}
	if payload.Name != "" {
		user.Name = payload.Name
	}
	if err := h.db.Save(&user).Error; err != nil {
		h.logger.Error("Failed to update user %s: %v", payload.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	h.publish(c, events.Event{
		Type:     events.TypeUserUpdated,
		EntityID: user.ID,
		Data: map[string]string{
			"previous_email":    previous.Email,
			"previous_username": previous.Username,
		},
	})
	c.JSON(http.StatusOK, gin.H{"message": "User event accepted"})
}

func (h *WebhookHandler) UserDeleted(c *gin.Context) {
	var payload struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", payload.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	if err := h.db.Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
		h.logger.Error("Failed to delete user %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	// The deactivation sync runs after the row is gone, so the event
	// carries the snapshot it needs.
	h.publish(c, events.Event{
		Type:     events.TypeUserDeleted,
		EntityID: user.ID,
		Data: map[string]string{
			"username": user.Username,
			"email":    user.Email,
		},
	})
	c.JSON(http.StatusOK, gin.H{"message": "User event accepted"})
}

func (h *WebhookHandler) publish(c *gin.Context, event events.Event) {
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish %s event for %s: %v", event.Type, event.EntityID, err)
	}
}
