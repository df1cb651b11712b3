package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// Cart is the user's single active cart. CanteenID is set by the first line
// added and pins the cart to that vendor until it is cleared or converted;
// totals are always recomputed from the lines, never stored here.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	CanteenID   *uuid.UUID       `gorm:"column:canteen_id;type:uuid"`
	CanteenName *string          `gorm:"column:canteen_name"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Lines       []CartLine       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// SubtotalPaise computes the cart total from its lines.
func (c *Cart) SubtotalPaise() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, line := range c.Lines {
		total += line.UnitPricePaise * line.Quantity
	}
	return total
}

// TotalItems sums line quantities.
func (c *Cart) TotalItems() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}
