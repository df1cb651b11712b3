package controllers

import (
	"net/http"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	checkoutsvc "github.com/smartcanteen/canteen-backend/internal/checkout"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// CheckoutStart snapshots the active cart into an order. UPI orders stay in
// pending_payment until confirmed; cash orders are placed immediately.
func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Start(r.Context(), userID, checkoutsvc.StartInput{Method: method})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order := newOrderResponse(result.Order)
		order.Session = newPaymentSessionResponse(result.Session)

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
