package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smartcanteen/canteen-backend/pkg/types"
)

// CartLine is one entry in a cart. Name and price are snapshots taken when
// the line was added; catalog edits do not reach back into existing lines.
// The line id is distinct from the menu item id because the same item with
// different customizations occupies separate lines.
type CartLine struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID      `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string         `gorm:"column:name;not null"`
	UnitPricePaise int            `gorm:"column:unit_price_paise;not null"`
	Quantity       int            `gorm:"column:quantity;not null"`
	CanteenID      uuid.UUID      `gorm:"column:canteen_id;type:uuid;not null"`
	CanteenName    string         `gorm:"column:canteen_name;not null"`
	Additions      pq.StringArray `gorm:"column:additions;type:text[]"`
	Notes          string         `gorm:"column:notes;not null;default:''"`
	Position       int            `gorm:"column:position;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Customizations returns the line's selections as a comparable value.
func (l CartLine) Customizations() types.Customizations {
	return types.Customizations{Additions: append([]string(nil), l.Additions...), Notes: l.Notes}
}

// LineTotalPaise is unit price times quantity.
func (l CartLine) LineTotalPaise() int {
	return l.UnitPricePaise * l.Quantity
}
