package controllers

import (
	"net/http"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	paymentssvc "github.com/smartcanteen/canteen-backend/internal/payments"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type confirmPaymentRequest struct {
	ProviderOrderID   string `json:"razorpay_order_id" validate:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature         string `json:"razorpay_signature" validate:"required"`
}

type failPaymentRequest struct {
	Reason string `json:"reason"`
}

type initiatePaymentResponse struct {
	KeyID           string        `json:"key_id"`
	ProviderOrderID string        `json:"provider_order_id"`
	AmountPaise     int           `json:"amount_paise"`
	Currency        string        `json:"currency"`
	Order           orderResponse `json:"order"`
}

// PaymentInitiate opens (or resumes) the payment attempt for a UPI order
// and returns the widget parameters.
func PaymentInitiate(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order := newOrderResponse(result.Order)
		order.Session = newPaymentSessionResponse(result.Session)

		responses.WriteSuccess(w, initiatePaymentResponse{
			KeyID:           result.KeyID,
			ProviderOrderID: result.ProviderOrderID,
			AmountPaise:     result.AmountPaise,
			Currency:        result.Currency,
			Order:           order,
		})
	}
}

// PaymentConfirm verifies the gateway callback signature and settles the
// order on success.
func PaymentConfirm(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), userID, orderID, paymentssvc.ConfirmInput{
			ProviderOrderID:   body.ProviderOrderID,
			ProviderPaymentID: body.ProviderPaymentID,
			Signature:         body.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// PaymentCancel closes the open attempt when the customer dismisses the
// widget. The order itself stays open for retry.
func PaymentCancel(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentSessionResponse(session))
	}
}

// PaymentFail records a gateway-reported failure against the open attempt.
func PaymentFail(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body failPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Fail(r.Context(), userID, orderID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentSessionResponse(session))
	}
}
