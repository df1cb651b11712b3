package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/cart"
	"github.com/smartcanteen/canteen-backend/internal/orders"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountResolver interface {
	BestDiscount(ctx context.Context, canteenID uuid.UUID, subtotalPaise int) (int, *models.Promotion, error)
}

// Service turns the active cart into an immutable order snapshot and settles
// placement once payment resolves. The cart is only cleared when placement
// actually succeeds; abandoned or failed payments leave it intact.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID, input StartInput) (*StartResult, error)
	FinishPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// StartInput selects how the order will be paid.
type StartInput struct {
	Method enums.PaymentMethod
}

// StartResult carries the snapshot produced by Start.
type StartResult struct {
	Order   *models.Order
	Session *models.PaymentSession
}

type service struct {
	tx            txRunner
	cartRepo      cart.Repository
	ordersRepo    orders.Repository
	discounts     discountResolver
	metrics       *metrics.PaymentMetrics
	receiptPrefix string
	currency      string
	now           func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	discounts discountResolver,
	paymentMetrics *metrics.PaymentMetrics,
	receiptPrefix string,
	currency string,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	if receiptPrefix == "" {
		receiptPrefix = "rcpt"
	}
	if currency == "" {
		currency = "INR"
	}
	return &service{
		tx:            tx,
		cartRepo:      cartRepo,
		ordersRepo:    ordersRepo,
		discounts:     discounts,
		metrics:       paymentMetrics,
		receiptPrefix: receiptPrefix,
		currency:      currency,
		now:           time.Now,
	}, nil
}

// Start snapshots the active cart into an order plus payment session. UPI
// orders wait in pending_payment with the cart untouched; cash orders are
// placed immediately and the cart is converted in the same transaction.
func (s *service) Start(ctx context.Context, userID uuid.UUID, input StartInput) (*StartResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var result *StartResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := cartRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.metrics.IncCheckout("aborted_empty_cart")
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return err
		}
		if len(record.Lines) == 0 {
			s.metrics.IncCheckout("aborted_empty_cart")
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if record.CanteenID == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart has no canteen")
		}

		subtotal := record.SubtotalPaise()
		discount, _, err := s.discounts.BestDiscount(ctx, *record.CanteenID, subtotal)
		if err != nil {
			return err
		}
		total := subtotal - discount
		if total < 0 {
			total = 0
		}

		order := &models.Order{
			UserID:        userID,
			CanteenID:     *record.CanteenID,
			CanteenName:   canteenName(record),
			Status:        enums.OrderStatusPendingPayment,
			PaymentMethod: input.Method,
			PaymentStatus: enums.PaymentStatusUnpaid,
			SubtotalPaise: subtotal,
			DiscountPaise: discount,
			TotalPaise:    total,
			Receipt:       s.newReceipt(),
		}

		now := s.now().UTC()
		session := &models.PaymentSession{
			Method:      input.Method,
			Status:      enums.PaymentSessionInitiated,
			AmountPaise: total,
			Currency:    s.currency,
		}

		if input.Method == enums.PaymentMethodCash {
			// cash settles at pickup; the order goes straight into the queue
			order.Status = enums.OrderStatusPending
			order.PaymentStatus = enums.PaymentStatusPending
			order.PlacedAt = &now
			session.Status = enums.PaymentSessionAwaitingConfirmation
		}

		created, err := ordersRepo.Create(ctx, order)
		if err != nil {
			return err
		}

		if err := ordersRepo.CreateLines(ctx, snapshotLines(created.ID, record.Lines)); err != nil {
			return err
		}

		session.OrderID = created.ID
		if session, err = ordersRepo.CreateSession(ctx, session); err != nil {
			return err
		}

		if input.Method == enums.PaymentMethodCash {
			if err := s.convertCart(ctx, cartRepo, record); err != nil {
				return err
			}
		}

		final, err := ordersRepo.FindByID(ctx, created.ID)
		if err != nil {
			return err
		}
		result = &StartResult{Order: final, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCheckout("started")
	return result, nil
}

// FinishPaid settles a UPI order after its payment session completed. The
// order is confirmed, marked paid and the owner's cart is converted in one
// transaction. Calling it again for an already settled order is a no-op.
func (s *service) FinishPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}

		if order.PaymentStatus == enums.PaymentStatusPaid {
			result = order
			return nil
		}
		if order.Status != enums.OrderStatusPendingPayment {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment")
		}

		now := s.now().UTC()
		order.Status = enums.OrderStatusConfirmed
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PlacedAt = &now
		if result, err = ordersRepo.Save(ctx, order); err != nil {
			return err
		}

		record, err := cartRepo.FindActiveByUser(ctx, order.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return s.convertCart(ctx, cartRepo, record)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// convertCart clears the lines and retires the cart so the next add starts
// a fresh one.
func (s *service) convertCart(ctx context.Context, cartRepo cart.Repository, record *models.Cart) error {
	if err := cartRepo.DeleteLines(ctx, record.ID); err != nil {
		return err
	}
	now := s.now().UTC()
	record.Lines = nil
	record.Status = enums.CartStatusConverted
	record.ConvertedAt = &now
	_, err := cartRepo.Update(ctx, record)
	return err
}

func (s *service) newReceipt() string {
	return fmt.Sprintf("%s-%s", s.receiptPrefix, uuid.NewString())
}

func snapshotLines(orderID uuid.UUID, lines []models.CartLine) []models.OrderLine {
	snapshot := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		snapshot = append(snapshot, models.OrderLine{
			OrderID:        orderID,
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			UnitPricePaise: line.UnitPricePaise,
			Quantity:       line.Quantity,
			Additions:      append([]string(nil), line.Additions...),
			Notes:          line.Notes,
			Position:       line.Position,
		})
	}
	return snapshot
}

func canteenName(record *models.Cart) string {
	if record.CanteenName != nil {
		return *record.CanteenName
	}
	return ""
}
