package sync

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"backsync/internal/backoffice"
	"backsync/internal/logger"
	"backsync/internal/logsink"
	"backsync/internal/models"
	"backsync/internal/store"

	"gorm.io/gorm"
)

const (
	productPath    = "/api/wp/wordpress-product"
	purchasePath   = "/api/wp/external-wordpress-purchase"
	registerPath   = "/api/wp/register-user"
	updateUserPath = "/api/wp/update-user"
	deactivatePath = "/api/wp/deactivate-user"
)

// Dispatcher maps storefront lifecycle events to back office API calls.
// Failures never propagate to the event source; they are written to the
// sync log and swallowed.
type Dispatcher struct {
	db      *gorm.DB
	client  *backoffice.Client
	pending store.PendingStore
	sink    *logsink.Sink
	logger  *logger.Logger
}

func NewDispatcher(db *gorm.DB, client *backoffice.Client, pending store.PendingStore, sink *logsink.Sink, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		db:      db,
		client:  client,
		pending: pending,
		sink:    sink,
		logger:  logger,
	}
}

// Summary is the result of a bulk product sync.
type Summary struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Errors int `json:"errors"`
}

func (s Summary) Message() string {
	return fmt.Sprintf("Synced %d of %d products successfully. %d errors.", s.Synced, s.Total, s.Errors)
}

// ErrNotConfigured is returned by the bulk sync when the back office
// endpoint is unset; the event-driven paths log the condition instead.
var ErrNotConfigured = fmt.Errorf("API URL or API Key not configured")

func (d *Dispatcher) configured() bool {
	if d.client.Configured() {
		return true
	}
	d.sink.Error("API URL or API Key not configured.")
	return false
}

// SyncProduct pushes one product to the back office. Products without a
// regular price are skipped with an error log and no HTTP call.
func (d *Dispatcher) SyncProduct(ctx context.Context, externalID string) {
	if !d.configured() {
		return
	}

	var product models.Product
	if err := d.db.First(&product, "external_id = ?", externalID).Error; err != nil {
		d.sink.Error("Product not found for ID: %s", externalID)
		return
	}

	d.syncProductRecord(&product)
}

func (d *Dispatcher) syncProductRecord(product *models.Product) bool {
	if product.RegularPrice == "" {
		d.sink.Error("Product ID %s has no regular price defined.", product.ExternalID)
		return false
	}

	price, err := strconv.ParseFloat(product.RegularPrice, 64)
	if err != nil {
		// The storefront price field is free text; sync as 0 but leave
		// a trace in the log.
		d.sink.Error("Product ID %s has a non-numeric regular price %q; syncing as 0.", product.ExternalID, product.RegularPrice)
		price = 0
	}

	resp, err := d.client.Post(productPath, map[string]interface{}{
		"name":       product.Name,
		"product_id": product.ExternalID,
		"price":      price,
	})
	if err != nil {
		d.sink.Error("Product sync failed for ID %s: %v", product.ExternalID, err)
		return false
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		d.sink.Success("Product synced: ID %s, Name: %s, Price: %s", product.ExternalID, product.Name, product.RegularPrice)
		return true
	}

	d.sink.Error("Product sync error for ID %s: HTTP %d - %s", product.ExternalID, resp.StatusCode, resp.Message())
	return false
}

// SyncAllProducts pushes every published product and reports counts. This
// is the only bulk operation; it blocks until every product was attempted.
func (d *Dispatcher) SyncAllProducts(ctx context.Context) (Summary, error) {
	if !d.client.Configured() {
		return Summary{}, ErrNotConfigured
	}

	var products []models.Product
	if err := d.db.Where("status = ?", models.ProductStatusPublish).Find(&products).Error; err != nil {
		return Summary{}, fmt.Errorf("failed to load products: %w", err)
	}

	summary := Summary{Total: len(products)}
	for i := range products {
		if d.syncProductRecord(&products[i]) {
			summary.Synced++
		} else {
			summary.Errors++
		}
	}

	return summary, nil
}

// SyncPurchase pushes every line item of a completed order. The order is
// flagged synced only when all items were accepted; one failed item leaves
// the order unsynced so a later completion event retries the whole order.
func (d *Dispatcher) SyncPurchase(ctx context.Context, orderExternalID string) {
	if !d.configured() {
		return
	}

	var order models.Order
	err := d.db.Preload("Items").First(&order, "external_id = ?", orderExternalID).Error
	if err != nil {
		d.sink.Error("Order not found for ID: %s", orderExternalID)
		return
	}

	if order.SyncStatus == models.SyncStatusSynced {
		d.sink.Success("Order %s already synced; skipping.", order.ExternalID)
		return
	}

	// An itemless order must not vacuously pass the all-items check below.
	if len(order.Items) == 0 {
		d.sink.Error("Order %s has no line items; purchase sync aborted.", order.ExternalID)
		return
	}

	username := d.resolveUsername(order.UserID)

	allItemsSynced := true
	for _, item := range order.Items {
		resp, err := d.client.Post(purchasePath, map[string]interface{}{
			"product_id": item.ProductExternalID,
			"username":   username,
			"order_id":   order.ExternalID,
		})
		if err != nil {
			d.sink.Error("Purchase sync failed for product ID %s: %v", item.ProductExternalID, err)
			allItemsSynced = false
			continue
		}

		if resp.StatusCode == http.StatusOK && resp.StatusTruthy() {
			d.sink.Success("Purchase synced for product ID %s, order %s, user %q", item.ProductExternalID, order.ExternalID, username)
		} else {
			d.sink.Error("Purchase sync error for product ID %s: HTTP %d - %s", item.ProductExternalID, resp.StatusCode, resp.Message())
			allItemsSynced = false
		}
	}

	if !allItemsSynced {
		return
	}

	// Guarded transition: only one concurrent completion can claim it.
	result := d.db.Model(&models.Order{}).
		Where("id = ? AND sync_status = ?", order.ID, models.SyncStatusUnsynced).
		Update("sync_status", models.SyncStatusSynced)
	if result.Error != nil {
		d.sink.Error("Failed to mark order %s as synced: %v", order.ExternalID, result.Error)
	}
}

// resolveUsername maps an order's user to a back office username. Guest
// checkouts sync with an empty username.
func (d *Dispatcher) resolveUsername(userID *string) string {
	if userID == nil || *userID == "" {
		return ""
	}

	var user models.User
	if err := d.db.First(&user, "id = ?", *userID).Error; err != nil {
		return ""
	}
	return user.Username
}

// SyncUserRegistration forwards a freshly created account together with
// the pre-validated plaintext password. The pending entry is consumed
// whether or not the remote call succeeds.
func (d *Dispatcher) SyncUserRegistration(ctx context.Context, userID string) {
	if !d.configured() {
		return
	}

	var user models.User
	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		d.sink.Error("User not found for ID: %s", userID)
		return
	}

	password, found, err := d.pending.Take(ctx, store.EmailKey(user.Email))
	if err != nil {
		d.sink.Error("Registration sync failed for %s: %v", user.Email, err)
		return
	}
	if !found {
		d.sink.Error("No pending registration password for %s; registration sync aborted.", user.Email)
		return
	}

	payload := map[string]interface{}{
		"username":   user.Username,
		"email":      user.Email,
		"password":   password,
		"wp_user_id": user.ID,
	}
	if user.Name != "" {
		payload["name"] = user.Name
	}
	if user.Referral != nil && *user.Referral != "" {
		payload["referral"] = *user.Referral
	}

	resp, err := d.client.Post(registerPath, payload)
	if err != nil {
		d.sink.Error("Registration sync failed for %s: %v", user.Email, err)
		return
	}

	if resp.StatusCode == http.StatusOK && resp.StatusTruthy() {
		d.sink.Success("User registration synced for %s (%s)", user.Username, user.Email)
	} else {
		d.sink.Error("Registration sync error for %s: HTTP %d - %s", user.Email, resp.StatusCode, resp.Message())
	}
}

// SyncUserUpdate forwards a profile change. Only transport failures count
// as errors on this endpoint.
func (d *Dispatcher) SyncUserUpdate(ctx context.Context, userID string, previous models.UserSnapshot) {
	if !d.configured() {
		return
	}

	var user models.User
	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		d.sink.Error("User not found for ID: %s", userID)
		return
	}

	_, err := d.client.Post(updateUserPath, map[string]interface{}{
		"wp_user_id": user.ID,
		"email":      user.Email,
		"username":   user.Username,
	})
	if err != nil {
		d.sink.Error("User update sync failed for %s: %v", user.Email, err)
		return
	}

	if previous.Email != "" && previous.Email != user.Email {
		d.sink.Success("User update synced for %s (email was %s)", user.Username, previous.Email)
	} else {
		d.sink.Success("User update synced for %s", user.Username)
	}
}

// SyncUserDeletion deactivates the remote account. The local row is
// already gone, so the event carries a snapshot.
func (d *Dispatcher) SyncUserDeletion(ctx context.Context, snapshot models.UserSnapshot) {
	if !d.configured() {
		return
	}

	_, err := d.client.Post(deactivatePath, map[string]interface{}{
		"wp_user_id": snapshot.UserID,
	})
	if err != nil {
		d.sink.Error("User deactivation sync failed for %s: %v", snapshot.Email, err)
		return
	}

	d.sink.Success("User %s deactivated in back office", snapshot.Username)
}
