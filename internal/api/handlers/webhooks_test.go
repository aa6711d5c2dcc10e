package handlers

import (
	"net/http"
	"testing"

	"backsync/internal/events"
	"backsync/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB, *fakePublisher) {
	t.Helper()
	db := newTestDB(t)
	publisher := &fakePublisher{}
	handler := NewWebhookHandler(db, publisher, testLogger())

	router := gin.New()
	router.POST("/webhooks/product", handler.ProductUpserted)
	router.POST("/webhooks/order-completed", handler.OrderCompleted)
	router.POST("/webhooks/user-updated", handler.UserUpdated)
	router.POST("/webhooks/user-deleted", handler.UserDeleted)
	return router, db, publisher
}

func TestProductWebhookCreatesAndUpdates(t *testing.T) {
	router, db, publisher := newWebhookRouter(t)

	recorder := performJSON(router, "POST", "/webhooks/product", map[string]interface{}{
		"product_id":    "101",
		"name":          "Starter Pack",
		"regular_price": "49.90",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var product models.Product
	require.NoError(t, db.First(&product, "external_id = ?", "101").Error)
	assert.Equal(t, "Starter Pack", product.Name)
	assert.Equal(t, "publish", product.Status)

	recorder = performJSON(router, "POST", "/webhooks/product", map[string]interface{}{
		"product_id":    "101",
		"name":          "Starter Pack v2",
		"regular_price": "59.90",
		"status":        "draft",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.First(&product, "external_id = ?", "101").Error)
	assert.Equal(t, "Starter Pack v2", product.Name)
	assert.Equal(t, "59.90", product.RegularPrice)
	assert.Equal(t, "draft", product.Status)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.TypeProductUpdated, publisher.published[0].Type)
	assert.Equal(t, "101", publisher.published[0].EntityID)
}

func TestProductWebhookRejectsMissingFields(t *testing.T) {
	router, _, publisher := newWebhookRouter(t)

	recorder := performJSON(router, "POST", "/webhooks/product", map[string]interface{}{
		"product_id": "101",
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, publisher.published)
}

func TestOrderWebhookStoresOrderWithItems(t *testing.T) {
	router, db, publisher := newWebhookRouter(t)

	recorder := performJSON(router, "POST", "/webhooks/order-completed", map[string]interface{}{
		"order_id":      "5001",
		"billing_email": "buyer@example.com",
		"items": []map[string]interface{}{
			{"product_id": "101", "quantity": 2},
			{"product_id": "102"},
		},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order, "external_id = ?", "5001").Error)
	assert.Equal(t, models.SyncStatusUnsynced, order.SyncStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[1].Quantity)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.TypeOrderCompleted, publisher.published[0].Type)
	assert.Equal(t, "5001", publisher.published[0].EntityID)
}

func TestOrderWebhookDuplicateKeepsSyncStatus(t *testing.T) {
	router, db, publisher := newWebhookRouter(t)

	recorder := performJSON(router, "POST", "/webhooks/order-completed", map[string]interface{}{
		"order_id": "5001",
		"items":    []map[string]interface{}{{"product_id": "101", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NoError(t, db.Model(&models.Order{}).
		Where("external_id = ?", "5001").
		Update("sync_status", models.SyncStatusSynced).Error)

	recorder = performJSON(router, "POST", "/webhooks/order-completed", map[string]interface{}{
		"order_id": "5001",
		"items":    []map[string]interface{}{{"product_id": "101", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order, "external_id = ?", "5001").Error)
	assert.Equal(t, models.SyncStatusSynced, order.SyncStatus)
	assert.Len(t, order.Items, 1)

	// The duplicate still publishes; the worker decides it is a no-op.
	assert.Len(t, publisher.published, 2)
}

func TestUserUpdatedWebhookCarriesPreviousIdentity(t *testing.T) {
	router, db, publisher := newWebhookRouter(t)

	user := models.User{Username: "dora", Email: "dora@example.com"}
	require.NoError(t, db.Create(&user).Error)

	recorder := performJSON(router, "POST", "/webhooks/user-updated", map[string]interface{}{
		"user_id": user.ID,
		"email":   "dora@new.example.com",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, "dora@new.example.com", updated.Email)

	require.Len(t, publisher.published, 1)
	event := publisher.published[0]
	assert.Equal(t, events.TypeUserUpdated, event.Type)
	assert.Equal(t, user.ID, event.EntityID)
	assert.Equal(t, "dora@example.com", event.Data["previous_email"])
	assert.Equal(t, "dora", event.Data["previous_username"])
}

func TestUserDeletedWebhookPublishesSnapshot(t *testing.T) {
	router, db, publisher := newWebhookRouter(t)

	user := models.User{Username: "edgar", Email: "edgar@example.com"}
	require.NoError(t, db.Create(&user).Error)

	recorder := performJSON(router, "POST", "/webhooks/user-deleted", map[string]interface{}{
		"user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var count int64
	db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	require.Len(t, publisher.published, 1)
	event := publisher.published[0]
	assert.Equal(t, events.TypeUserDeleted, event.Type)
	assert.Equal(t, "edgar", event.Data["username"])
	assert.Equal(t, "edgar@example.com", event.Data["email"])
}

func TestUserWebhooksUnknownUser(t *testing.T) {
	router, _, publisher := newWebhookRouter(t)

	recorder := performJSON(router, "POST", "/webhooks/user-updated", map[string]interface{}{
		"user_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = performJSON(router, "POST", "/webhooks/user-deleted", map[string]interface{}{
		"user_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	assert.Empty(t, publisher.published)
}
