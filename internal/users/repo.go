package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// Repository defines the persistence surface for accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// GormRepository is the gorm-backed implementation of Repository.
type GormRepository struct {
	repo.Base
}

// NewRepository wires a user repository to the database handle.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{Base: repo.NewBase(db)}
}

func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{Base: repo.NewBase(tx)}
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *GormRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.DB(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *GormRepository) ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error) {
	var rows []models.User
	err := r.DB(ctx).
		Where("role = ?", role).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
