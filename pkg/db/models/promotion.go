package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// Promotion is a vendor-managed discount. Percentage values use basis of
// whole percents; fixed values are paise.
type Promotion struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CanteenID uuid.UUID           `gorm:"column:canteen_id;type:uuid;not null;index"`
	Title     string              `gorm:"column:title;not null"`
	Type      enums.PromotionType `gorm:"column:type;type:text;not null"`
	Value     int                 `gorm:"column:value;not null"`
	MinSpend  int                 `gorm:"column:min_spend_paise;not null;default:0"`
	StartsAt  time.Time           `gorm:"column:starts_at;not null"`
	EndsAt    time.Time           `gorm:"column:ends_at;not null"`
	IsActive  bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
