package models

import (
	"time"

	"github.com/google/uuid"
)

// Canteen is a vendor selling through the platform.
type Canteen struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Location    *string   `gorm:"column:location"`
	OpeningTime *string   `gorm:"column:opening_time"`
	ClosingTime *string   `gorm:"column:closing_time"`
	IsOpen      bool      `gorm:"column:is_open;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
