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
	checkoutsvc "github.com/smartcanteen/canteen-backend/internal/checkout"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type stubCheckoutService struct {
	result     *checkoutsvc.StartResult
	err        error
	lastMethod enums.PaymentMethod
}

func (s *stubCheckoutService) Start(ctx context.Context, userID uuid.UUID, input checkoutsvc.StartInput) (*checkoutsvc.StartResult, error) {
	s.lastMethod = input.Method
	return s.result, s.err
}

func (s *stubCheckoutService) FinishPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func TestCheckoutStartUPI(t *testing.T) {
	userID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		CanteenID:     uuid.New(),
		CanteenName:   "North Mess",
		Status:        enums.OrderStatusPendingPayment,
		PaymentMethod: enums.PaymentMethodUPI,
		PaymentStatus: enums.PaymentStatusUnpaid,
		SubtotalPaise: 11500,
		TotalPaise:    11500,
		Receipt:       "CNTN-00042",
	}
	session := &models.PaymentSession{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Method:      enums.PaymentMethodUPI,
		Status:      enums.PaymentSessionInitiated,
		AmountPaise: 11500,
		Currency:    "INR",
	}
	svc := &stubCheckoutService{result: &checkoutsvc.StartResult{Order: order, Session: session}}
	handler := CheckoutStart(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"upi"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.lastMethod != enums.PaymentMethodUPI {
		t.Fatalf("expected upi got %s", svc.lastMethod)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.OrderStatusPendingPayment) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
	if envelope.Data.Session == nil || envelope.Data.Session.AmountPaise != 11500 {
		t.Fatalf("expected payment session with amount 11500: %+v", envelope.Data.Session)
	}
}

func TestCheckoutStartRejectsUnknownMethod(t *testing.T) {
	handler := CheckoutStart(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"card"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutStartEmptyCart(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	handler := CheckoutStart(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"cash"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutStartMissingUserContext(t *testing.T) {
	handler := CheckoutStart(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"upi"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
