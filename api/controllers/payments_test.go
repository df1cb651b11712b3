package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/middleware"
	paymentssvc "github.com/smartcanteen/canteen-backend/internal/payments"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type stubPaymentsService struct {
	initiate    *paymentssvc.InitiateResult
	order       *models.Order
	session     *models.PaymentSession
	err         error
	lastConfirm paymentssvc.ConfirmInput
}

func (s *stubPaymentsService) Initiate(ctx context.Context, userID, orderID uuid.UUID) (*paymentssvc.InitiateResult, error) {
	return s.initiate, s.err
}

func (s *stubPaymentsService) Confirm(ctx context.Context, userID, orderID uuid.UUID, input paymentssvc.ConfirmInput) (*models.Order, error) {
	s.lastConfirm = input
	return s.order, s.err
}

func (s *stubPaymentsService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.PaymentSession, error) {
	return s.session, s.err
}

func (s *stubPaymentsService) Fail(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.PaymentSession, error) {
	return s.session, s.err
}

func paymentRequest(t *testing.T, method, target, body string, userID, orderID uuid.UUID) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

	return req.WithContext(ctx)
}

func TestPaymentInitiateReturnsWidgetParams(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	providerOrderID := "order_P9xyz123"
	svc := &stubPaymentsService{
		initiate: &paymentssvc.InitiateResult{
			Order: &models.Order{
				ID:            orderID,
				UserID:        userID,
				CanteenName:   "North Mess",
				Status:        enums.OrderStatusPendingPayment,
				PaymentMethod: enums.PaymentMethodUPI,
				TotalPaise:    11500,
			},
			Session: &models.PaymentSession{
				ID:              uuid.New(),
				OrderID:         orderID,
				Status:          enums.PaymentSessionAwaitingConfirmation,
				AmountPaise:     11500,
				Currency:        "INR",
				ProviderOrderID: &providerOrderID,
			},
			KeyID:           "rzp_test_abc",
			ProviderOrderID: providerOrderID,
			AmountPaise:     11500,
			Currency:        "INR",
		},
	}
	handler := PaymentInitiate(svc, nil)

	req := paymentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/initiate", "", userID, orderID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data initiatePaymentResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.KeyID != "rzp_test_abc" {
		t.Fatalf("unexpected key id %q", envelope.Data.KeyID)
	}
	if envelope.Data.ProviderOrderID != providerOrderID {
		t.Fatalf("unexpected provider order id %q", envelope.Data.ProviderOrderID)
	}
	if envelope.Data.AmountPaise != 11500 {
		t.Fatalf("unexpected amount %d", envelope.Data.AmountPaise)
	}
}

func TestPaymentConfirmForwardsCallbackFields(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentsService{
		order: &models.Order{
			ID:            orderID,
			UserID:        userID,
			Status:        enums.OrderStatusConfirmed,
			PaymentStatus: enums.PaymentStatusPaid,
		},
	}
	handler := PaymentConfirm(svc, nil)

	body := `{"razorpay_order_id":"order_P9","razorpay_payment_id":"pay_Q1","razorpay_signature":"deadbeef"}`
	req := paymentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/confirm", body, userID, orderID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.lastConfirm.ProviderPaymentID != "pay_Q1" {
		t.Fatalf("unexpected payment id %q", svc.lastConfirm.ProviderPaymentID)
	}
	if svc.lastConfirm.Signature != "deadbeef" {
		t.Fatalf("unexpected signature %q", svc.lastConfirm.Signature)
	}
}

func TestPaymentConfirmRejectsPartialCallback(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	handler := PaymentConfirm(&stubPaymentsService{}, nil)

	body := `{"razorpay_order_id":"order_P9"}`
	req := paymentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/confirm", body, userID, orderID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentConfirmVerificationFailure(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentsService{err: pkgerrors.New(pkgerrors.CodeVerificationFailed, "signature verification failed")}
	handler := PaymentConfirm(svc, nil)

	body := `{"razorpay_order_id":"order_P9","razorpay_payment_id":"pay_Q1","razorpay_signature":"bad"}`
	req := paymentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/confirm", body, userID, orderID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "VERIFICATION_FAILED") {
		t.Fatalf("expected verification code in body: %s", resp.Body.String())
	}
}

func TestPaymentCancelReturnsClosedSession(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentsService{
		session: &models.PaymentSession{
			ID:      uuid.New(),
			OrderID: orderID,
			Status:  enums.PaymentSessionCancelled,
		},
	}
	handler := PaymentCancel(svc, nil)

	req := paymentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/cancel", "", userID, orderID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data paymentSessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.PaymentSessionCancelled) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestPaymentInitiateInvalidOrderID(t *testing.T) {
	handler := PaymentInitiate(&stubPaymentsService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/payment/initiate", strings.NewReader("{}"))
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", "not-a-uuid")
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
