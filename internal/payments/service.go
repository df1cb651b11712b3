package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/orders"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/metrics"
	"github.com/smartcanteen/canteen-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentLocker interface {
	AcquirePaymentLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, orderID string) error
}

type placementFinisher interface {
	FinishPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Service drives one payment attempt per order through the external
// gateway. At most one attempt is in flight at a time; a session that
// reached a terminal status never leaves it, so stale widget callbacks
// cannot undo a completed payment.
type Service interface {
	Initiate(ctx context.Context, userID, orderID uuid.UUID) (*InitiateResult, error)
	Confirm(ctx context.Context, userID, orderID uuid.UUID, input ConfirmInput) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.PaymentSession, error)
	Fail(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.PaymentSession, error)
}

type service struct {
	tx        txRunner
	orders    orders.Repository
	merchants MerchantClients
	locker    paymentLocker
	finisher  placementFinisher
	metrics   *metrics.PaymentMetrics
	lockTTL   time.Duration
	currency  string
	now       func() time.Time
}

// NewService builds the payments service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	merchants MerchantClients,
	locker paymentLocker,
	finisher placementFinisher,
	paymentMetrics *metrics.PaymentMetrics,
	lockTTL time.Duration,
	currency string,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if merchants == nil {
		return nil, fmt.Errorf("merchant clients required")
	}
	if locker == nil {
		return nil, fmt.Errorf("payment locker required")
	}
	if finisher == nil {
		return nil, fmt.Errorf("placement finisher required")
	}
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}
	if currency == "" {
		currency = "INR"
	}
	return &service{
		tx:        tx,
		orders:    ordersRepo,
		merchants: merchants,
		locker:    locker,
		finisher:  finisher,
		metrics:   paymentMetrics,
		lockTTL:   lockTTL,
		currency:  currency,
		now:       time.Now,
	}, nil
}

// InitiateResult is everything the client needs to launch the widget.
type InitiateResult struct {
	Order           *models.Order
	Session         *models.PaymentSession
	KeyID           string
	ProviderOrderID string
	AmountPaise     int
	Currency        string
}

// ConfirmInput is the success callback payload from the widget.
type ConfirmInput struct {
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
}

// Initiate opens a provider order for the exact total. Initiating again
// while an attempt is in flight returns the existing attempt instead of
// opening a second one.
func (s *service) Initiate(ctx context.Context, userID, orderID uuid.UUID) (*InitiateResult, error) {
	started := s.now()

	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodUPI {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cash orders are settled at pickup")
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment")
	}

	gateway, err := s.merchants.ForCanteen(ctx, order.CanteenID)
	if err != nil {
		return nil, err
	}

	// reuse the attempt already in flight
	if live, err := s.orders.FindLiveSessionByOrder(ctx, order.ID); err == nil {
		if live.Status == enums.PaymentSessionAwaitingConfirmation && live.ProviderOrderID != nil {
			return s.initiateResult(order, live, gateway), nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment session")
	}

	acquired, err := s.locker.AcquirePaymentLock(ctx, order.ID.String(), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payment lock")
	}
	if !acquired {
		live, err := s.orders.FindLiveSessionByOrder(ctx, order.ID)
		if err == nil && live.ProviderOrderID != nil {
			return s.initiateResult(order, live, gateway), nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a payment attempt is already in progress")
	}

	providerOrder, err := gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
		AmountPaise: order.TotalPaise,
		Currency:    s.currency,
		Receipt:     order.Receipt,
		Notes:       map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())
		return nil, err
	}

	var session *models.PaymentSession
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.orders.WithTx(tx)

		session, err = txRepo.FindLiveSessionByOrder(ctx, order.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			session = &models.PaymentSession{
				OrderID:     order.ID,
				Method:      enums.PaymentMethodUPI,
				AmountPaise: order.TotalPaise,
				Currency:    s.currency,
			}
			if session, err = txRepo.CreateSession(ctx, session); err != nil {
				return err
			}
		}

		session.Status = enums.PaymentSessionAwaitingConfirmation
		session.ProviderOrderID = &providerOrder.ID
		session, err = txRepo.SaveSession(ctx, session)
		return err
	})
	if err != nil {
		_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment session")
	}

	s.metrics.ObserveInitiate(string(enums.PaymentMethodUPI), s.now().Sub(started))
	return s.initiateResult(order, session, gateway), nil
}

// Confirm verifies the widget's signature and settles the order. A mismatch
// closes the attempt as failed and never marks anything paid. Confirming an
// already completed session is a no-op so a duplicate callback cannot hurt.
func (s *service) Confirm(ctx context.Context, userID, orderID uuid.UUID, input ConfirmInput) (*models.Order, error) {
	if strings.TrimSpace(input.ProviderOrderID) == "" ||
		strings.TrimSpace(input.ProviderPaymentID) == "" ||
		strings.TrimSpace(input.Signature) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id, payment id and signature are required")
	}

	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	session, err := s.latestSession(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if session.Status == enums.PaymentSessionCompleted {
		// A completed session with the order still awaiting payment means a
		// prior Confirm verified the money but failed before settling.
		// FinishPaid is idempotent, so the retry settles it here.
		if order.Status == enums.OrderStatusPendingPayment {
			return s.finisher.FinishPaid(ctx, order.ID)
		}
		return order, nil
	}
	if session.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment attempt is already closed")
	}
	if session.ProviderOrderID == nil || *session.ProviderOrderID != input.ProviderOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment does not match the open attempt")
	}

	gateway, err := s.merchants.ForCanteen(ctx, order.CanteenID)
	if err != nil {
		return nil, err
	}

	verifyErr := gateway.VerifyPaymentSignature(razorpay.PaymentSignature{
		OrderID:   input.ProviderOrderID,
		PaymentID: input.ProviderPaymentID,
		Signature: input.Signature,
	})
	if verifyErr != nil {
		reason := "signature verification failed"
		if err := s.closeSession(ctx, session, enums.PaymentSessionFailed, &reason, nil); err != nil {
			return nil, err
		}
		_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())
		s.metrics.IncOutcome(string(session.Method), string(enums.PaymentSessionFailed))
		return nil, verifyErr
	}

	if err := s.closeSession(ctx, session, enums.PaymentSessionCompleted, nil, &input.ProviderPaymentID); err != nil {
		return nil, err
	}
	_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())

	settled, err := s.finisher.FinishPaid(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncOutcome(string(session.Method), string(enums.PaymentSessionCompleted))
	return settled, nil
}

// Cancel closes the open attempt after the widget is dismissed. The order
// and the cart are untouched so the user can retry. Cancelling a session
// that already reached a terminal status is a no-op; in particular a late
// dismissal after a successful payment changes nothing.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.PaymentSession, error) {
	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	session, err := s.latestSession(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return session, nil
	}

	if err := s.closeSession(ctx, session, enums.PaymentSessionCancelled, nil, nil); err != nil {
		return nil, err
	}
	_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())

	s.metrics.IncOutcome(string(session.Method), string(enums.PaymentSessionCancelled))
	return session, nil
}

// Fail records a widget-reported payment failure. Like Cancel it leaves the
// order and cart alone; the user may start a fresh attempt.
func (s *service) Fail(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.PaymentSession, error) {
	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	session, err := s.latestSession(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return session, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.orders.WithTx(tx)

		session.Status = enums.PaymentSessionFailed
		session.FailureReason = &reason
		if session, err = txRepo.SaveSession(ctx, session); err != nil {
			return err
		}

		order.PaymentStatus = enums.PaymentStatusFailed
		_, err = txRepo.Save(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close payment session")
	}
	_ = s.locker.ReleasePaymentLock(ctx, order.ID.String())

	s.metrics.IncOutcome(string(session.Method), string(enums.PaymentSessionFailed))
	return session, nil
}

func (s *service) initiateResult(order *models.Order, session *models.PaymentSession, gateway Gateway) *InitiateResult {
	providerOrderID := ""
	if session.ProviderOrderID != nil {
		providerOrderID = *session.ProviderOrderID
	}
	return &InitiateResult{
		Order:           order,
		Session:         session,
		KeyID:           gateway.KeyID(),
		ProviderOrderID: providerOrderID,
		AmountPaise:     session.AmountPaise,
		Currency:        session.Currency,
	}
}

func (s *service) loadOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.orders.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) latestSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	session, err := s.orders.FindLatestSessionByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment attempt for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment session")
	}
	return session, nil
}

func (s *service) closeSession(ctx context.Context, session *models.PaymentSession, status enums.PaymentSessionStatus, reason, providerPaymentID *string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.orders.WithTx(tx)

		session.Status = status
		session.FailureReason = reason
		if providerPaymentID != nil {
			session.ProviderPaymentID = providerPaymentID
		}
		if status == enums.PaymentSessionCompleted {
			now := s.now().UTC()
			session.CompletedAt = &now
		}

		saved, err := txRepo.SaveSession(ctx, session)
		if err != nil {
			return err
		}
		*session = *saved
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close payment session")
	}
	return nil
}
