package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderLine is a snapshot copy of one cart line at checkout time.
type OrderLine struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID      `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string         `gorm:"column:name;not null"`
	UnitPricePaise int            `gorm:"column:unit_price_paise;not null"`
	Quantity       int            `gorm:"column:quantity;not null"`
	Additions      pq.StringArray `gorm:"column:additions;type:text[]"`
	Notes          string         `gorm:"column:notes;not null;default:''"`
	Position       int            `gorm:"column:position;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}
