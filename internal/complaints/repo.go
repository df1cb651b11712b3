package complaints

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
)

// Repository is the gorm-backed store for complaints.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var row models.Complaint
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := r.DB(ctx).
		Where("canteen_id = ?", canteenID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, row *models.Complaint) (*models.Complaint, error) {
	if err := r.DB(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository) Save(ctx context.Context, row *models.Complaint) (*models.Complaint, error) {
	if err := r.DB(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
