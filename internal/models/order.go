package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID           string      `json:"id" gorm:"primary_key"`
	ExternalID   string      `json:"external_id" gorm:"unique;not null"`
	UserID       *string     `json:"user_id"`
	BillingEmail string      `json:"billing_email"`
	Status       string      `json:"status" gorm:"default:completed"`
	SyncStatus   SyncStatus  `json:"sync_status" gorm:"default:unsynced"`
	Items        []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID                string    `json:"id" gorm:"primary_key"`
	OrderID           string    `json:"order_id" gorm:"not null"`
	ProductExternalID string    `json:"product_external_id" gorm:"not null"`
	Quantity          int       `json:"quantity" gorm:"default:1"`
	CreatedAt         time.Time `json:"created_at"`
}

// SyncStatus is the per-order back office flag. The only legal transition
// is unsynced -> synced, taken once every line item has been accepted.
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusSynced   SyncStatus = "synced"
)

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.SyncStatus == "" {
		o.SyncStatus = SyncStatusUnsynced
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
