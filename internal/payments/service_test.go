package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/orders"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/metrics"
	"github.com/smartcanteen/canteen-backend/pkg/pagination"
	"github.com/smartcanteen/canteen-backend/pkg/razorpay"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	orders   map[uuid.UUID]*models.Order
	sessions []*models.PaymentSession
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return r }

func (r *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *stubOrdersRepo) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	return nil
}

func (r *stubOrdersRepo) Save(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.orders[order.ID] = order
	return order, nil
}

func (r *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubOrdersRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrdersRepo) ListByCanteen(ctx context.Context, canteenID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrdersRepo) CreateSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = enums.PaymentSessionInitiated
	}
	r.sessions = append(r.sessions, session)
	return session, nil
}

func (r *stubOrdersRepo) SaveSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	for i, existing := range r.sessions {
		if existing.ID == session.ID {
			r.sessions[i] = session
			return session, nil
		}
	}
	r.sessions = append(r.sessions, session)
	return session, nil
}

func (r *stubOrdersRepo) FindLiveSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	for i := len(r.sessions) - 1; i >= 0; i-- {
		session := r.sessions[i]
		if session.OrderID != orderID {
			continue
		}
		if session.Status == enums.PaymentSessionInitiated || session.Status == enums.PaymentSessionAwaitingConfirmation {
			return session, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdersRepo) FindLatestSessionByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	for i := len(r.sessions) - 1; i >= 0; i-- {
		if r.sessions[i].OrderID == orderID {
			return r.sessions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubGateway struct {
	keyID       string
	createCalls int
	createErr   error
	verifyErr   error
	lastReceipt string
	lastAmount  int
}

func (g *stubGateway) KeyID() string { return g.keyID }

func (g *stubGateway) CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.ProviderOrder, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastReceipt = params.Receipt
	g.lastAmount = params.AmountPaise
	return &razorpay.ProviderOrder{
		ID:          uuid.NewString(),
		AmountPaise: params.AmountPaise,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
	}, nil
}

func (g *stubGateway) VerifyPaymentSignature(sig razorpay.PaymentSignature) error {
	return g.verifyErr
}

type stubMerchants struct {
	gateway Gateway
	err     error
}

func (m *stubMerchants) ForCanteen(ctx context.Context, canteenID uuid.UUID) (Gateway, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.gateway, nil
}

type stubLocker struct {
	held     map[string]bool
	denyNext bool
}

func newStubLocker() *stubLocker { return &stubLocker{held: map[string]bool{}} }

func (l *stubLocker) AcquirePaymentLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	if l.denyNext || l.held[orderID] {
		return false, nil
	}
	l.held[orderID] = true
	return true, nil
}

func (l *stubLocker) ReleasePaymentLock(ctx context.Context, orderID string) error {
	delete(l.held, orderID)
	return nil
}

type stubFinisher struct {
	repo     *stubOrdersRepo
	calls    int
	failNext error
}

func (f *stubFinisher) FinishPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	f.calls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	order, ok := f.repo.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	order.Status = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusPaid
	return order, nil
}

type paymentsFixture struct {
	svc      Service
	repo     *stubOrdersRepo
	gateway  *stubGateway
	locker   *stubLocker
	finisher *stubFinisher
	userID   uuid.UUID
	order    *models.Order
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()

	repo := newStubOrdersRepo()
	gateway := &stubGateway{keyID: "rzp_test_stub"}
	locker := newStubLocker()
	finisher := &stubFinisher{repo: repo}

	userID := uuid.New()
	order := &models.Order{
		UserID:        userID,
		CanteenID:     uuid.New(),
		Status:        enums.OrderStatusPendingPayment,
		PaymentMethod: enums.PaymentMethodUPI,
		PaymentStatus: enums.PaymentStatusUnpaid,
		SubtotalPaise: 9000,
		TotalPaise:    9000,
		Receipt:       "rcpt-" + uuid.NewString(),
	}
	if _, err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	svc, err := NewService(
		stubTxRunner{},
		repo,
		&stubMerchants{gateway: gateway},
		locker,
		finisher,
		metrics.NewPaymentMetrics(nil),
		time.Minute,
		"INR",
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &paymentsFixture{
		svc:      svc,
		repo:     repo,
		gateway:  gateway,
		locker:   locker,
		finisher: finisher,
		userID:   userID,
		order:    order,
	}
}

func (f *paymentsFixture) confirmInput(result *InitiateResult) ConfirmInput {
	return ConfirmInput{
		ProviderOrderID:   result.ProviderOrderID,
		ProviderPaymentID: "pay_" + uuid.NewString(),
		Signature:         "deadbeef",
	}
}

func TestInitiateOpensProviderOrderForExactTotal(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if f.gateway.lastAmount != f.order.TotalPaise {
		t.Fatalf("provider charged %d, want %d", f.gateway.lastAmount, f.order.TotalPaise)
	}
	if f.gateway.lastReceipt != f.order.Receipt {
		t.Fatalf("receipt %q, want %q", f.gateway.lastReceipt, f.order.Receipt)
	}
	if result.KeyID != "rzp_test_stub" {
		t.Fatalf("unexpected key id %q", result.KeyID)
	}
	if result.ProviderOrderID == "" {
		t.Fatal("expected provider order id")
	}
	if result.Session.Status != enums.PaymentSessionAwaitingConfirmation {
		t.Fatalf("session status %q", result.Session.Status)
	}
}

func TestInitiateTwiceReturnsExistingAttempt(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	first, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	second, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("second initiate: %v", err)
	}

	if f.gateway.createCalls != 1 {
		t.Fatalf("provider called %d times, want 1", f.gateway.createCalls)
	}
	if first.ProviderOrderID != second.ProviderOrderID {
		t.Fatalf("attempts diverged: %q vs %q", first.ProviderOrderID, second.ProviderOrderID)
	}
	if len(f.repo.sessions) != 1 {
		t.Fatalf("%d sessions created, want 1", len(f.repo.sessions))
	}
}

func TestInitiateRejectsCashOrders(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)
	f.order.PaymentMethod = enums.PaymentMethodCash
	f.order.Status = enums.OrderStatusPending

	_, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInitiateReleasesLockWhenProviderFails(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)
	f.gateway.createErr = pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "gateway unreachable")

	_, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeGatewayUnavailable) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if f.locker.held[f.order.ID.String()] {
		t.Fatal("lock still held after provider failure")
	}

	// retry succeeds once the gateway recovers
	f.gateway.createErr = nil
	if _, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestConfirmSettlesOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	settled, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, f.confirmInput(result))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if settled.Status != enums.OrderStatusConfirmed || settled.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("order not settled: %s / %s", settled.Status, settled.PaymentStatus)
	}
	if f.finisher.calls != 1 {
		t.Fatalf("finisher called %d times, want 1", f.finisher.calls)
	}

	session, err := f.repo.FindLatestSessionByOrder(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != enums.PaymentSessionCompleted {
		t.Fatalf("session status %q", session.Status)
	}
	if session.ProviderPaymentID == nil {
		t.Fatal("provider payment id not recorded")
	}
	if session.CompletedAt == nil {
		t.Fatal("completion time not recorded")
	}
}

func TestConfirmWithBadSignatureFailsAttemptAndSettlesNothing(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)
	f.gateway.verifyErr = pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment signature mismatch")

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	_, err = f.svc.Confirm(context.Background(), f.userID, f.order.ID, f.confirmInput(result))
	if !pkgerrors.HasCode(err, pkgerrors.CodeVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}

	if f.finisher.calls != 0 {
		t.Fatal("order settled despite bad signature")
	}
	if f.order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status %q, want pending payment", f.order.Status)
	}
	session, _ := f.repo.FindLatestSessionByOrder(context.Background(), f.order.ID)
	if session.Status != enums.PaymentSessionFailed {
		t.Fatalf("session status %q, want failed", session.Status)
	}
}

func TestConfirmRejectsMismatchedProviderOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	if _, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	_, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, ConfirmInput{
		ProviderOrderID:   "order_someone_elses",
		ProviderPaymentID: "pay_x",
		Signature:         "deadbeef",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
}

func TestConfirmTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	input := f.confirmInput(result)
	if _, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, input); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, input); err != nil {
		t.Fatalf("duplicate confirm: %v", err)
	}
	if f.finisher.calls != 1 {
		t.Fatalf("finisher called %d times, want 1", f.finisher.calls)
	}
}

func TestConfirmRetrySettlesAfterTransientFinishFailure(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	input := f.confirmInput(result)

	// the signature verifies and the session closes, but settlement dies
	f.finisher.failNext = pkgerrors.New(pkgerrors.CodeDependency, "db unreachable")
	if _, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, input); err == nil {
		t.Fatal("expected settlement failure")
	}

	session, _ := f.repo.FindLatestSessionByOrder(context.Background(), f.order.ID)
	if session.Status != enums.PaymentSessionCompleted {
		t.Fatalf("session status %q, verified money must stay completed", session.Status)
	}
	if f.order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status %q, want pending payment", f.order.Status)
	}

	settled, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, input)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if settled.Status != enums.OrderStatusConfirmed || settled.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("order not settled on retry: %s / %s", settled.Status, settled.PaymentStatus)
	}
	if f.finisher.calls != 2 {
		t.Fatalf("finisher called %d times, want 2", f.finisher.calls)
	}
}

func TestCancelAfterSuccessChangesNothing(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	result, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, f.confirmInput(result)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// a stale dismissal callback arrives after the payment already landed
	session, err := f.svc.Cancel(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if session.Status != enums.PaymentSessionCompleted {
		t.Fatalf("session status %q, want completed", session.Status)
	}
	if f.order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order status %q, want confirmed", f.order.Status)
	}
}

func TestCancelClosesOpenAttemptAndAllowsRetry(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	if _, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	session, err := f.svc.Cancel(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if session.Status != enums.PaymentSessionCancelled {
		t.Fatalf("session status %q", session.Status)
	}
	if f.order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status %q, want pending payment", f.order.Status)
	}

	retry, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("retry initiate: %v", err)
	}
	if retry.Session.ID == session.ID {
		t.Fatal("retry reused a cancelled session")
	}
	if f.gateway.createCalls != 2 {
		t.Fatalf("provider called %d times, want 2", f.gateway.createCalls)
	}
}

func TestFailRecordsReasonAndMarksPaymentFailed(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	if _, err := f.svc.Initiate(context.Background(), f.userID, f.order.ID); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	session, err := f.svc.Fail(context.Background(), f.userID, f.order.ID, "card declined")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if session.Status != enums.PaymentSessionFailed {
		t.Fatalf("session status %q", session.Status)
	}
	if session.FailureReason == nil || *session.FailureReason != "card declined" {
		t.Fatalf("failure reason %v", session.FailureReason)
	}
	if f.order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("payment status %q", f.order.PaymentStatus)
	}
	if f.order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status %q, order must stay retryable", f.order.Status)
	}
}

func TestConfirmRequiresAnAttempt(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	_, err := f.svc.Confirm(context.Background(), f.userID, f.order.ID, ConfirmInput{
		ProviderOrderID:   "order_x",
		ProviderPaymentID: "pay_x",
		Signature:         "deadbeef",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderOwnershipIsEnforced(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	_, err := f.svc.Initiate(context.Background(), uuid.New(), f.order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestMerchantConfigErrorSurfacesBeforeLocking(t *testing.T) {
	t.Parallel()
	f := newPaymentsFixture(t)

	repo := f.repo
	svc, err := NewService(
		stubTxRunner{},
		repo,
		&stubMerchants{err: pkgerrors.New(pkgerrors.CodeMerchantConfig, "canteen has no merchant account configured")},
		f.locker,
		f.finisher,
		metrics.NewPaymentMetrics(nil),
		time.Minute,
		"INR",
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Initiate(context.Background(), f.userID, f.order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeMerchantConfig) {
		t.Fatalf("expected merchant config error, got %v", err)
	}
	if f.locker.held[f.order.ID.String()] {
		t.Fatal("lock taken despite merchant config failure")
	}
}
