package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/repo"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
)

// MerchantRepository loads the provider key pairs canteens collect with.
type MerchantRepository struct {
	repo.Base
}

// NewMerchantRepository constructs a merchant account repository.
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{Base: repo.NewBase(db)}
}

// FindActiveByCanteen returns the canteen's active merchant account.
func (r *MerchantRepository) FindActiveByCanteen(ctx context.Context, canteenID uuid.UUID) (*models.MerchantAccount, error) {
	var account models.MerchantAccount
	err := r.DB(ctx).
		Where("canteen_id = ? AND is_active = ?", canteenID, true).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Upsert stores or replaces the canteen's key pair.
func (r *MerchantRepository) Upsert(ctx context.Context, account *models.MerchantAccount) (*models.MerchantAccount, error) {
	var existing models.MerchantAccount
	err := r.DB(ctx).Where("canteen_id = ?", account.CanteenID).First(&existing).Error
	switch {
	case err == nil:
		existing.ProviderKeyID = account.ProviderKeyID
		existing.ProviderKeySecret = account.ProviderKeySecret
		existing.IsActive = account.IsActive
		if err := r.DB(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case err == gorm.ErrRecordNotFound:
		if err := r.DB(ctx).Create(account).Error; err != nil {
			return nil, err
		}
		return account, nil
	default:
		return nil, err
	}
}
