package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Update(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error
	CreateLine(ctx context.Context, line *models.CartLine) error
	UpdateLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	DeleteLines(ctx context.Context, cartID uuid.UUID) error
}
