package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/middleware"
	cartsvc "github.com/smartcanteen/canteen-backend/internal/cart"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type stubCartService struct {
	cart      *models.Cart
	err       error
	lastInput cartsvc.AddLineInput
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddLine(ctx context.Context, userID uuid.UUID, input cartsvc.AddLineInput) (*models.Cart, error) {
	s.lastInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.cart, s.err
}

func testCart(userID uuid.UUID) *models.Cart {
	canteenID := uuid.New()
	canteenName := "North Mess"
	return &models.Cart{
		ID:          uuid.New(),
		UserID:      userID,
		CanteenID:   &canteenID,
		CanteenName: &canteenName,
		Status:      enums.CartStatusActive,
		Lines: []models.CartLine{
			{
				ID:             uuid.New(),
				MenuItemID:     uuid.New(),
				Name:           "Masala Dosa",
				UnitPricePaise: 5000,
				Quantity:       2,
				CanteenID:      canteenID,
				CanteenName:    canteenName,
			},
			{
				ID:             uuid.New(),
				MenuItemID:     uuid.New(),
				Name:           "Filter Coffee",
				UnitPricePaise: 1500,
				Quantity:       1,
				CanteenID:      canteenID,
				CanteenName:    canteenName,
			},
		},
	}
}

func TestCartFetchComputesTotals(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartFetch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SubtotalPaise != 11500 {
		t.Fatalf("expected subtotal 11500 got %d", envelope.Data.SubtotalPaise)
	}
	if envelope.Data.TotalItems != 3 {
		t.Fatalf("expected 3 items got %d", envelope.Data.TotalItems)
	}
	if envelope.Data.IsEmpty {
		t.Fatal("expected cart not to be empty")
	}
	if envelope.Data.Lines[0].LineTotalPaise != 10000 {
		t.Fatalf("expected line total 10000 got %d", envelope.Data.Lines[0].LineTotalPaise)
	}
}

func TestCartFetchMissingUserContext(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCartAddLinePassesCustomizations(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartAddLine(svc, nil)

	itemID := uuid.New()
	body := `{"menu_item_id":"` + itemID.String() + `","quantity":2,"additions":["extra chutney"],"notes":"less spicy"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.lastInput.MenuItemID != itemID {
		t.Fatalf("expected item %s got %s", itemID, svc.lastInput.MenuItemID)
	}
	if svc.lastInput.Quantity != 2 {
		t.Fatalf("expected quantity 2 got %d", svc.lastInput.Quantity)
	}
	if svc.lastInput.Customizations.Notes != "less spicy" {
		t.Fatalf("unexpected notes %q", svc.lastInput.Customizations.Notes)
	}
}

func TestCartAddLineRejectsMissingQuantity(t *testing.T) {
	userID := uuid.New()
	handler := CartAddLine(&stubCartService{}, nil)

	body := `{"menu_item_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddLineCrossVendorConflict(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeCrossVendorConflict, "cart holds items from another canteen")}
	handler := CartAddLine(svc, nil)

	body := `{"menu_item_id":"` + uuid.NewString() + `","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "CROSS_VENDOR_CONFLICT") {
		t.Fatalf("expected cross vendor code in body: %s", resp.Body.String())
	}
}
