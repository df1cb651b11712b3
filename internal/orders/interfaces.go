package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	"github.com/smartcanteen/canteen-backend/pkg/pagination"
)

// Repository defines the persistence surface for orders, their line
// snapshots and payment sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	Save(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)

	CreateSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error)
	SaveSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error)
	FindLiveSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error)
	FindLatestSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error)
}
