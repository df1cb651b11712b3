package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/internal/cart"
	"github.com/smartcanteen/canteen-backend/internal/orders"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/metrics"
	"github.com/smartcanteen/canteen-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (r *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return r }

func (r *stubCartRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, record := range r.carts {
		if record.UserID == userID && record.Status == enums.CartStatusActive {
			copied := *record
			copied.Lines = append([]models.CartLine(nil), record.Lines...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCartRepo) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.carts[record.ID] = record
	return record, nil
}

func (r *stubCartRepo) Update(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	stored, ok := r.carts[record.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	lines := stored.Lines
	*stored = *record
	stored.Lines = lines
	return stored, nil
}

func (r *stubCartRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	stored, ok := r.carts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	return nil
}

func (r *stubCartRepo) CreateLine(ctx context.Context, line *models.CartLine) error {
	stored, ok := r.carts[line.CartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	stored.Lines = append(stored.Lines, *line)
	return nil
}

func (r *stubCartRepo) UpdateLine(ctx context.Context, line *models.CartLine) error {
	stored, ok := r.carts[line.CartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range stored.Lines {
		if stored.Lines[i].ID == line.ID {
			stored.Lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCartRepo) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	stored, ok := r.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := stored.Lines[:0]
	for _, line := range stored.Lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	stored.Lines = kept
	return nil
}

func (r *stubCartRepo) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	stored, ok := r.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Lines = nil
	return nil
}

type stubOrdersRepo struct {
	orders   map[uuid.UUID]*models.Order
	lines    map[uuid.UUID][]models.OrderLine
	sessions []*models.PaymentSession
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders: map[uuid.UUID]*models.Order{},
		lines:  map[uuid.UUID][]models.OrderLine{},
	}
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
	for _, line := range lines {
		r.lines[line.OrderID] = append(r.lines[line.OrderID], line)
	}
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
	copied := *order
	copied.Lines = append([]models.OrderLine(nil), r.lines[id]...)
	return &copied, nil
}

func (r *stubOrdersRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := r.FindByID(ctx, id)
	if err != nil || order.UserID != userID {
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

type stubDiscounts struct {
	discount  int
	promotion *models.Promotion
	minSpend  int
}

func (d *stubDiscounts) BestDiscount(ctx context.Context, canteenID uuid.UUID, subtotalPaise int) (int, *models.Promotion, error) {
	if subtotalPaise < d.minSpend {
		return 0, nil, nil
	}
	return d.discount, d.promotion, nil
}

type checkoutFixture struct {
	svc       Service
	cartRepo  *stubCartRepo
	orders    *stubOrdersRepo
	discounts *stubDiscounts
	userID    uuid.UUID
	canteenID uuid.UUID
	cartID    uuid.UUID
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	cartRepo := newStubCartRepo()
	ordersRepo := newStubOrdersRepo()
	discounts := &stubDiscounts{}

	userID := uuid.New()
	canteenID := uuid.New()
	canteenName := "North Mess"

	record := &models.Cart{
		UserID:      userID,
		CanteenID:   &canteenID,
		CanteenName: &canteenName,
		Status:      enums.CartStatusActive,
	}
	if _, err := cartRepo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	record.Lines = []models.CartLine{
		{
			ID:             uuid.New(),
			CartID:         record.ID,
			MenuItemID:     uuid.New(),
			Name:           "Masala Dosa",
			UnitPricePaise: 5000,
			Quantity:       2,
			CanteenID:      canteenID,
			CanteenName:    canteenName,
			Additions:      []string{"extra chutney"},
			Position:       0,
		},
		{
			ID:             uuid.New(),
			CartID:         record.ID,
			MenuItemID:     uuid.New(),
			Name:           "Filter Coffee",
			UnitPricePaise: 1500,
			Quantity:       1,
			CanteenID:      canteenID,
			CanteenName:    canteenName,
			Position:       1,
		},
	}

	svc, err := NewService(
		stubTxRunner{},
		cartRepo,
		ordersRepo,
		discounts,
		metrics.NewPaymentMetrics(nil),
		"rcpt",
		"INR",
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &checkoutFixture{
		svc:       svc,
		cartRepo:  cartRepo,
		orders:    ordersRepo,
		discounts: discounts,
		userID:    userID,
		canteenID: canteenID,
		cartID:    record.ID,
	}
}

func TestStartSnapshotsCartIntoPendingPaymentOrder(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status %q", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("payment status %q", order.PaymentStatus)
	}
	if order.SubtotalPaise != 11500 || order.TotalPaise != 11500 {
		t.Fatalf("totals %d/%d, want 11500/11500", order.SubtotalPaise, order.TotalPaise)
	}
	if order.CanteenID != f.canteenID || order.CanteenName != "North Mess" {
		t.Fatalf("canteen snapshot %s / %q", order.CanteenID, order.CanteenName)
	}
	if order.Receipt == "" {
		t.Fatal("missing receipt")
	}
	if len(order.Lines) != 2 {
		t.Fatalf("%d snapshot lines, want 2", len(order.Lines))
	}
	if order.Lines[0].Name != "Masala Dosa" || order.Lines[0].Quantity != 2 {
		t.Fatalf("first line %q x%d", order.Lines[0].Name, order.Lines[0].Quantity)
	}
	if result.Session.Status != enums.PaymentSessionInitiated {
		t.Fatalf("session status %q", result.Session.Status)
	}
	if result.Session.AmountPaise != order.TotalPaise {
		t.Fatalf("session amount %d, want %d", result.Session.AmountPaise, order.TotalPaise)
	}

	// UPI leaves the cart intact until payment lands
	record, err := f.cartRepo.FindActiveByUser(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("cart gone: %v", err)
	}
	if len(record.Lines) != 2 {
		t.Fatalf("cart has %d lines, want 2", len(record.Lines))
	}
}

func TestStartAppliesBestDiscount(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)
	f.discounts.discount = 1500

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Order.DiscountPaise != 1500 {
		t.Fatalf("discount %d", result.Order.DiscountPaise)
	}
	if result.Order.TotalPaise != 10000 {
		t.Fatalf("total %d, want 10000", result.Order.TotalPaise)
	}
	if result.Session.AmountPaise != 10000 {
		t.Fatalf("session amount %d, want 10000", result.Session.AmountPaise)
	}
}

func TestStartClampsDiscountAtSubtotal(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)
	f.discounts.discount = 99999

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Order.TotalPaise != 0 {
		t.Fatalf("total %d, want 0", result.Order.TotalPaise)
	}
}

func TestStartWithEmptyCartAborts(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)
	f.cartRepo.carts[f.cartID].Lines = nil

	_, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatal("order created from empty cart")
	}
}

func TestStartWithNoCartAborts(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	_, err := f.svc.Start(context.Background(), uuid.New(), StartInput{Method: enums.PaymentMethodUPI})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartRejectsUnknownPaymentMethod(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	_, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethod("card")})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartCashPlacesImmediatelyAndConvertsCart(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodCash})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("order status %q, want pending", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status %q", order.PaymentStatus)
	}
	if order.PlacedAt == nil {
		t.Fatal("placed time not recorded")
	}
	if result.Session.Status != enums.PaymentSessionAwaitingConfirmation {
		t.Fatalf("session status %q", result.Session.Status)
	}

	if _, err := f.cartRepo.FindActiveByUser(context.Background(), f.userID); err == nil {
		t.Fatal("cart still active after cash placement")
	}
	stored := f.cartRepo.carts[f.cartID]
	if stored.Status != enums.CartStatusConverted {
		t.Fatalf("cart status %q", stored.Status)
	}
	if stored.ConvertedAt == nil {
		t.Fatal("conversion time not recorded")
	}
}

func TestSnapshotIsImmuneToLaterCartEdits(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// the cart keeps living while payment is pending
	stored := f.cartRepo.carts[f.cartID]
	stored.Lines[0].Quantity = 9
	stored.Lines = stored.Lines[:1]

	reloaded, err := f.orders.FindByID(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if len(reloaded.Lines) != 2 {
		t.Fatalf("%d snapshot lines after cart edit, want 2", len(reloaded.Lines))
	}
	if reloaded.Lines[0].Quantity != 2 {
		t.Fatalf("snapshot quantity %d, want 2", reloaded.Lines[0].Quantity)
	}
}

func TestFinishPaidConfirmsOrderAndConvertsCart(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	settled, err := f.svc.FinishPaid(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("finish paid: %v", err)
	}
	if settled.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order status %q", settled.Status)
	}
	if settled.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment status %q", settled.PaymentStatus)
	}
	if settled.PlacedAt == nil {
		t.Fatal("placed time not recorded")
	}
	if f.cartRepo.carts[f.cartID].Status != enums.CartStatusConverted {
		t.Fatal("cart not converted after paid placement")
	}
}

func TestFinishPaidTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.FinishPaid(context.Background(), result.Order.ID); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	settled, err := f.svc.FinishPaid(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if settled.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order status %q", settled.Status)
	}
}

func TestFinishPaidRejectsCancelledOrder(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	result, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.orders.orders[result.Order.ID].Status = enums.OrderStatusCancelled

	_, err = f.svc.FinishPaid(context.Background(), result.Order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStartReceiptsAreUnique(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture(t)

	first, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := f.svc.Start(context.Background(), f.userID, StartInput{Method: enums.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.Order.Receipt == second.Order.Receipt {
		t.Fatalf("duplicate receipt %q", first.Order.Receipt)
	}
}
