package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// Order is the immutable snapshot produced at checkout. Its lines are deep
// copies of the cart lines at snapshot time; the cart may change or be
// cleared afterwards without affecting the order.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	CanteenID     uuid.UUID           `gorm:"column:canteen_id;type:uuid;not null;index"`
	CanteenName   string              `gorm:"column:canteen_name;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending_payment'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'upi'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	SubtotalPaise int                 `gorm:"column:subtotal_paise;not null"`
	DiscountPaise int                 `gorm:"column:discount_paise;not null;default:0"`
	TotalPaise    int                 `gorm:"column:total_paise;not null"`
	Receipt       string              `gorm:"column:receipt;not null;uniqueIndex"`
	PlacedAt      *time.Time          `gorm:"column:placed_at"`
	Lines         []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Session       *PaymentSession     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
