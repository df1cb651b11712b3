package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/types"
)

type stubCartRepo struct {
	cart    *models.Cart
	findErr error
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.cart
	copied.Lines = append([]models.CartLine(nil), s.cart.Lines...)
	return &copied, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.ID = uuid.New()
	s.cart = cart
	return cart, nil
}

func (s *stubCartRepo) Update(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	lines := s.cart.Lines
	saved := *cart
	saved.Lines = lines
	s.cart = &saved
	return cart, nil
}

func (s *stubCartRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	s.cart.Status = status
	return nil
}

func (s *stubCartRepo) CreateLine(ctx context.Context, line *models.CartLine) error {
	line.ID = uuid.New()
	s.cart.Lines = append(s.cart.Lines, *line)
	return nil
}

func (s *stubCartRepo) UpdateLine(ctx context.Context, line *models.CartLine) error {
	for i := range s.cart.Lines {
		if s.cart.Lines[i].ID == line.ID {
			s.cart.Lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	kept := s.cart.Lines[:0]
	for _, line := range s.cart.Lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	s.cart.Lines = append([]models.CartLine(nil), kept...)
	return nil
}

func (s *stubCartRepo) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	s.cart.Lines = nil
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type countingTxRunner struct{ calls int }

func (r *countingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.calls++
	return fn(nil)
}

type stubMenuLoader struct {
	items map[uuid.UUID]*models.MenuItem
}

func (s stubMenuLoader) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

type stubCanteenLoader struct {
	canteens map[uuid.UUID]*models.Canteen
}

func (s stubCanteenLoader) GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error) {
	canteen, ok := s.canteens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return canteen, nil
}

type fixture struct {
	svc       Service
	repo      *stubCartRepo
	userID    uuid.UUID
	canteenA  *models.Canteen
	canteenB  *models.Canteen
	samosa    *models.MenuItem
	chai      *models.MenuItem
	otherItem *models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	canteenA := &models.Canteen{ID: uuid.New(), Name: "North Mess", IsOpen: true}
	canteenB := &models.Canteen{ID: uuid.New(), Name: "South Mess", IsOpen: true}

	samosa := &models.MenuItem{
		ID: uuid.New(), CanteenID: canteenA.ID, Name: "Samosa",
		PricePaise: 2000, IsAvailable: true, MinQuantity: 1, MaxQuantity: 10,
	}
	chai := &models.MenuItem{
		ID: uuid.New(), CanteenID: canteenA.ID, Name: "Masala Chai",
		PricePaise: 1500, IsAvailable: true, MinQuantity: 1, MaxQuantity: 10,
	}
	otherItem := &models.MenuItem{
		ID: uuid.New(), CanteenID: canteenB.ID, Name: "Dosa",
		PricePaise: 5000, IsAvailable: true, MinQuantity: 1, MaxQuantity: 5,
	}

	repo := &stubCartRepo{}
	svc, err := NewService(
		repo,
		stubTxRunner{},
		stubMenuLoader{items: map[uuid.UUID]*models.MenuItem{
			samosa.ID: samosa, chai.ID: chai, otherItem.ID: otherItem,
		}},
		stubCanteenLoader{canteens: map[uuid.UUID]*models.Canteen{
			canteenA.ID: canteenA, canteenB.ID: canteenB,
		}},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{
		svc:       svc,
		repo:      repo,
		userID:    uuid.New(),
		canteenA:  canteenA,
		canteenB:  canteenB,
		samosa:    samosa,
		chai:      chai,
		otherItem: otherItem,
	}
}

func TestGetReturnsEmptyCartForNewUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cart, err := f.svc.Get(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
	if cart.CanteenID != nil {
		t.Fatal("expected no canteen pin on empty cart")
	}
}

func TestAddLinePinsCanteenAndSnapshots(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	if cart.CanteenID == nil || *cart.CanteenID != f.canteenA.ID {
		t.Fatal("expected cart pinned to the item's canteen")
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.Name != "Samosa" || line.UnitPricePaise != 2000 {
		t.Fatalf("expected snapshot of name/price, got %q %d", line.Name, line.UnitPricePaise)
	}
	if cart.SubtotalPaise() != 4000 {
		t.Fatalf("expected subtotal 4000, got %d", cart.SubtotalPaise())
	}
}

func TestAddLineMergesEqualCustomizations(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first := AddLineInput{
		MenuItemID:     f.samosa.ID,
		Quantity:       1,
		Customizations: types.Customizations{Additions: []string{"Extra Chutney", "onions"}, Notes: "no spice"},
	}
	if _, err := f.svc.AddLine(ctx, f.userID, first); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// same selections differing only in order, case and whitespace
	second := AddLineInput{
		MenuItemID:     f.samosa.ID,
		Quantity:       2,
		Customizations: types.Customizations{Additions: []string{"onions", "  extra chutney "}, Notes: " No Spice "},
	}
	cart, err := f.svc.AddLine(ctx, f.userID, second)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected merge into 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Lines[0].Quantity)
	}
}

func TestAddLineDistinctCustomizationsAppends(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := f.svc.AddLine(ctx, f.userID, AddLineInput{
		MenuItemID:     f.samosa.ID,
		Quantity:       1,
		Customizations: types.Customizations{Notes: "extra crispy"},
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Position == cart.Lines[1].Position {
		t.Fatal("expected distinct positions")
	}
}

func TestAddLineCrossVendorConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}

	_, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.otherItem.ID, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeCrossVendorConflict) {
		t.Fatalf("expected cross vendor conflict, got %v", err)
	}
}

func TestAddLineCrossVendorRejectsBeforeTransaction(t *testing.T) {
	t.Parallel()

	canteenA := &models.Canteen{ID: uuid.New(), Name: "North Mess", IsOpen: true}
	canteenB := &models.Canteen{ID: uuid.New(), Name: "South Mess", IsOpen: true}
	dosa := &models.MenuItem{
		ID: uuid.New(), CanteenID: canteenB.ID, Name: "Dosa",
		PricePaise: 5000, IsAvailable: true, MinQuantity: 1, MaxQuantity: 5,
	}

	userID := uuid.New()
	pinnedID := canteenA.ID
	pinnedName := canteenA.Name
	repo := &stubCartRepo{cart: &models.Cart{
		ID:          uuid.New(),
		UserID:      userID,
		CanteenID:   &pinnedID,
		CanteenName: &pinnedName,
		Status:      enums.CartStatusActive,
		Lines: []models.CartLine{{
			ID: uuid.New(), MenuItemID: uuid.New(), Name: "Samosa",
			UnitPricePaise: 2000, Quantity: 1,
			CanteenID: canteenA.ID, CanteenName: canteenA.Name,
		}},
	}}

	runner := &countingTxRunner{}
	svc, err := NewService(
		repo,
		runner,
		stubMenuLoader{items: map[uuid.UUID]*models.MenuItem{dosa.ID: dosa}},
		stubCanteenLoader{canteens: map[uuid.UUID]*models.Canteen{
			canteenA.ID: canteenA, canteenB.ID: canteenB,
		}},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AddLine(context.Background(), userID, AddLineInput{MenuItemID: dosa.ID, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeCrossVendorConflict) {
		t.Fatalf("expected cross vendor conflict, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("transaction opened %d times for a pinned-canteen mismatch, want 0", runner.calls)
	}
}

func TestAddLineUnavailableItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.samosa.IsAvailable = false

	_, err := f.svc.AddLine(context.Background(), f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for unavailable item, got %v", err)
	}
}

func TestAddLineClosedCanteen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.canteenA.IsOpen = false

	_, err := f.svc.AddLine(context.Background(), f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for closed canteen, got %v", err)
	}
}

func TestAddLineClampsToMaxQuantity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 8}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 8})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if cart.Lines[0].Quantity != 10 {
		t.Fatalf("expected clamp at max 10, got %d", cart.Lines[0].Quantity)
	}
}

func TestUpdateLineQuantityBelowOneRemovesAndUnpins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err = f.svc.UpdateLineQuantity(ctx, f.userID, cart.Lines[0].ID, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
	if cart.CanteenID != nil {
		t.Fatal("expected canteen pin released after last line removed")
	}

	// cleared pin means another canteen is accepted again
	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.otherItem.ID, Quantity: 1}); err != nil {
		t.Fatalf("expected add from other canteen after unpin, got %v", err)
	}
}

func TestRemoveLineAbsentIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	after, err := f.svc.RemoveLine(ctx, f.userID, uuid.New())
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(after.Lines) != len(cart.Lines) {
		t.Fatalf("expected cart unchanged, got %d lines", len(after.Lines))
	}
}

func TestClearReleasesPin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.chai.ID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := f.svc.Clear(ctx, f.userID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cart.Lines) != 0 || cart.CanteenID != nil {
		t.Fatal("expected empty unpinned cart after clear")
	}
}

func TestClearTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddLine(ctx, f.userID, AddLineInput{MenuItemID: f.samosa.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.Clear(ctx, f.userID); err != nil {
		t.Fatalf("first clear: %v", err)
	}

	cart, err := f.svc.Clear(ctx, f.userID)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if len(cart.Lines) != 0 || cart.CanteenID != nil {
		t.Fatal("expected empty unpinned cart after repeated clear")
	}
	if cart.Status != enums.CartStatusActive {
		t.Fatalf("cart status %q, want active", cart.Status)
	}
}

func TestAddLineUnknownItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.AddLine(context.Background(), f.userID, AddLineInput{MenuItemID: uuid.New(), Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
