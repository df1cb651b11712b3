package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// BulkOrder is a catering request submitted to a canteen for vendor review.
type BulkOrder struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	CanteenID    uuid.UUID             `gorm:"column:canteen_id;type:uuid;not null;index"`
	Status       enums.BulkOrderStatus `gorm:"column:status;type:text;not null;default:'requested'"`
	Description  string                `gorm:"column:description;not null"`
	HeadCount    int                   `gorm:"column:head_count;not null"`
	PickupDate   time.Time             `gorm:"column:pickup_date;not null"`
	PickupTime   string                `gorm:"column:pickup_time;not null"`
	ContactName  string                `gorm:"column:contact_name;not null"`
	ContactPhone string                `gorm:"column:contact_phone;not null"`
	VendorNotes  *string               `gorm:"column:vendor_notes"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
