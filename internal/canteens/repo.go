package canteens

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
)

// Repository persists canteens.
type Repository struct {
	repo.Base
}

// NewRepository constructs a canteen repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads one canteen.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error) {
	var canteen models.Canteen
	if err := r.DB(ctx).Where("id = ?", id).First(&canteen).Error; err != nil {
		return nil, err
	}
	return &canteen, nil
}

// List returns canteens ordered by name.
func (r *Repository) List(ctx context.Context, onlyOpen bool) ([]models.Canteen, error) {
	query := r.DB(ctx).Order("name ASC")
	if onlyOpen {
		query = query.Where("is_open = ?", true)
	}
	var rows []models.Canteen
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a canteen.
func (r *Repository) Create(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	if err := r.DB(ctx).Create(canteen).Error; err != nil {
		return nil, err
	}
	return canteen, nil
}

// Update saves a canteen.
func (r *Repository) Update(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	if err := r.DB(ctx).Save(canteen).Error; err != nil {
		return nil, err
	}
	return canteen, nil
}
