package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product mirrors the storefront catalog entry. RegularPrice stays a string
// because the storefront reports it that way; an empty string means the
// price was never set and the product must not be synced.
type Product struct {
	ID           string    `json:"id" gorm:"primary_key"`
	ExternalID   string    `json:"external_id" gorm:"unique;not null"`
	Name         string    `json:"name" gorm:"not null"`
	RegularPrice string    `json:"regular_price"`
	Status       string    `json:"status" gorm:"default:publish"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProductStatus string

const (
	ProductStatusPublish ProductStatus = "publish"
	ProductStatusDraft   ProductStatus = "draft"
)

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
