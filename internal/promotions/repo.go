package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
)

// Repository persists vendor promotions.
type Repository struct {
	repo.Base
}

// NewRepository constructs a promotions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads one promotion.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.DB(ctx).Where("id = ?", id).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// ListByCanteen returns the canteen's promotions, newest first.
func (r *Repository) ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.DB(ctx).
		Where("canteen_id = ?", canteenID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive returns promotions currently in their window for the canteen.
func (r *Repository) ListActive(ctx context.Context, canteenID uuid.UUID, at time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.DB(ctx).
		Where("canteen_id = ? AND is_active = ? AND starts_at <= ? AND ends_at >= ?", canteenID, true, at, at).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a promotion.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.DB(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Update saves a promotion.
func (r *Repository) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.DB(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}
