package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// vendorTransitions lists which statuses a vendor may move an order into.
// pending_payment never appears here; only the payment flow leaves it.
var vendorTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:     {enums.OrderStatusCompleted},
}

// Service exposes order history for customers and the live queue for vendors.
type Service interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListForCanteen(ctx context.Context, canteenID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	AdvanceStatus(ctx context.Context, canteenID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	MarkCashCollected(ctx context.Context, canteenID, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListForCanteen(ctx context.Context, canteenID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}
	rows, err := s.repo.ListByCanteen(ctx, canteenID, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list canteen orders")
	}
	return rows, nil
}

// AdvanceStatus moves an order through the vendor workflow. Invalid
// transitions are rejected, repeating the current status is a no-op.
func (s *service) AdvanceStatus(ctx context.Context, canteenID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if canteenID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and order id are required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.ownedOrder(ctx, txRepo, canteenID, orderID)
		if err != nil {
			return err
		}

		if order.Status == next {
			result = order
			return nil
		}
		if !transitionAllowed(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		order.Status = next
		result, err = txRepo.Save(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkCashCollected settles a cash order at handover.
func (s *service) MarkCashCollected(ctx context.Context, canteenID, orderID uuid.UUID) (*models.Order, error) {
	if canteenID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and order id are required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.ownedOrder(ctx, txRepo, canteenID, orderID)
		if err != nil {
			return err
		}
		if order.PaymentMethod != enums.PaymentMethodCash {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not a cash order")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			result = order
			return nil
		}

		order.PaymentStatus = enums.PaymentStatusPaid
		if result, err = txRepo.Save(ctx, order); err != nil {
			return err
		}

		session, err := txRepo.FindLatestSessionByOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !session.Status.IsTerminal() {
			now := time.Now().UTC()
			session.Status = enums.PaymentSessionCompleted
			session.CompletedAt = &now
			if _, err := txRepo.SaveSession(ctx, session); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ownedOrder(ctx context.Context, txRepo Repository, canteenID, orderID uuid.UUID) (*models.Order, error) {
	order, err := txRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CanteenID != canteenID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another canteen")
	}
	return order, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, allowed := range vendorTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
