package models

import (
	"time"

	"github.com/google/uuid"
)

// MerchantAccount holds the provider key pair a canteen collects payments
// with. The secret never leaves the payments service; API responses only
// carry the key id.
type MerchantAccount struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CanteenID         uuid.UUID `gorm:"column:canteen_id;type:uuid;not null;uniqueIndex"`
	ProviderKeyID     string    `gorm:"column:provider_key_id;not null"`
	ProviderKeySecret string    `gorm:"column:provider_key_secret;not null"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
