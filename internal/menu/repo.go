package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
)

// Repository persists menu items.
type Repository struct {
	repo.Base
}

// NewRepository constructs a menu repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads one menu item.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByCanteen returns the canteen's items grouped for the menu screen.
func (r *Repository) ListByCanteen(ctx context.Context, canteenID uuid.UUID, onlyAvailable bool) ([]models.MenuItem, error) {
	query := r.DB(ctx).
		Where("canteen_id = ?", canteenID).
		Order("category ASC NULLS LAST").
		Order("name ASC")
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}
	var rows []models.MenuItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a menu item.
func (r *Repository) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Update saves a menu item.
func (r *Repository) Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.DB(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a menu item scoped to its canteen.
func (r *Repository) Delete(ctx context.Context, canteenID, id uuid.UUID) error {
	return r.DB(ctx).
		Where("canteen_id = ? AND id = ?", canteenID, id).
		Delete(&models.MenuItem{}).Error
}
