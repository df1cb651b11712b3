package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MenuItem is a catalog entry owned by a canteen. Prices are integer paise.
type MenuItem struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CanteenID       uuid.UUID      `gorm:"column:canteen_id;type:uuid;not null;index"`
	Name            string         `gorm:"column:name;not null"`
	Description     *string        `gorm:"column:description"`
	PricePaise      int            `gorm:"column:price_paise;not null"`
	Category        *string        `gorm:"column:category"`
	ImageURL        *string        `gorm:"column:image_url"`
	IsAvailable     bool           `gorm:"column:is_available;not null;default:true"`
	IsVegetarian    bool           `gorm:"column:is_vegetarian;not null;default:false"`
	IsVegan         bool           `gorm:"column:is_vegan;not null;default:false"`
	AddonOptions    pq.StringArray `gorm:"column:addon_options;type:text[]"`
	MinQuantity     int            `gorm:"column:min_quantity;not null;default:1"`
	MaxQuantity     int            `gorm:"column:max_quantity;not null;default:10"`
	PrepTimeMinutes *int           `gorm:"column:prep_time_minutes"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
