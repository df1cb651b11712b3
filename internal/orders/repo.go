package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	"github.com/smartcanteen/canteen-backend/pkg/pagination"
)

// GormRepository persists orders and payment sessions.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// Create inserts an order header.
func (r *GormRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Lines", "Session").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateLines inserts the order's snapshot lines.
func (r *GormRepository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// Save persists order header changes.
func (r *GormRepository) Save(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Lines", "Session").Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads one order with its lines and latest session.
func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Session", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDAndUser loads one order restricted to its owner.
func (r *GormRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Session", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *GormRepository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	query, err := applyCursor(query, params.Cursor)
	if err != nil {
		return nil, err
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByCanteen returns the vendor's order queue, newest first.
func (r *GormRepository) ListByCanteen(ctx context.Context, canteenID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("canteen_id = ?", canteenID).
		Order("created_at DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	query, err := applyCursor(query, params.Cursor)
	if err != nil {
		return nil, err
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyCursor(query *gorm.DB, raw string) (*gorm.DB, error) {
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, err
	}
	if cursor == nil {
		return query, nil
	}
	return query.Where(
		"(created_at, id) < (?, ?)",
		cursor.CreatedAt, cursor.ID,
	), nil
}

// CreateSession inserts a payment session.
func (r *GormRepository) CreateSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// SaveSession persists session changes.
func (r *GormRepository) SaveSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindLiveSessionByOrder returns the order's non-terminal session if any.
func (r *GormRepository) FindLiveSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, []enums.PaymentSessionStatus{
			enums.PaymentSessionInitiated,
			enums.PaymentSessionAwaitingConfirmation,
		}).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindLatestSessionByOrder returns the most recent session regardless of status.
func (r *GormRepository) FindLatestSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}
