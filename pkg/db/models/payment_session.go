package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// PaymentSession tracks one payment attempt for an order. At most one
// non-terminal session exists per order; a new attempt may only start after
// the previous one reached completed, failed or cancelled.
type PaymentSession struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	Method            enums.PaymentMethod        `gorm:"column:method;type:text;not null;default:'upi'"`
	Status            enums.PaymentSessionStatus `gorm:"column:status;type:text;not null;default:'initiated'"`
	AmountPaise       int                        `gorm:"column:amount_paise;not null"`
	Currency          string                     `gorm:"column:currency;not null;default:'INR'"`
	ProviderOrderID   *string                    `gorm:"column:provider_order_id"`
	ProviderPaymentID *string                    `gorm:"column:provider_payment_id"`
	FailureReason     *string                    `gorm:"column:failure_reason"`
	CompletedAt       *time.Time                 `gorm:"column:completed_at"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
