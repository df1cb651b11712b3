package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	bulksvc "github.com/smartcanteen/canteen-backend/internal/bulkorders"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type bulkOrderRequest struct {
	CanteenID    uuid.UUID `json:"canteen_id" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	HeadCount    int       `json:"head_count" validate:"required,min=1"`
	PickupDate   time.Time `json:"pickup_date" validate:"required"`
	PickupTime   string    `json:"pickup_time" validate:"required"`
	ContactName  string    `json:"contact_name" validate:"required"`
	ContactPhone string    `json:"contact_phone" validate:"required"`
}

type bulkOrderReviewRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type bulkOrderResponse struct {
	ID           uuid.UUID `json:"id"`
	CanteenID    uuid.UUID `json:"canteen_id"`
	Status       string    `json:"status"`
	Description  string    `json:"description"`
	HeadCount    int       `json:"head_count"`
	PickupDate   time.Time `json:"pickup_date"`
	PickupTime   string    `json:"pickup_time"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	VendorNotes  *string   `json:"vendor_notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func newBulkOrderResponse(row *models.BulkOrder) bulkOrderResponse {
	return bulkOrderResponse{
		ID:           row.ID,
		CanteenID:    row.CanteenID,
		Status:       string(row.Status),
		Description:  row.Description,
		HeadCount:    row.HeadCount,
		PickupDate:   row.PickupDate,
		PickupTime:   row.PickupTime,
		ContactName:  row.ContactName,
		ContactPhone: row.ContactPhone,
		VendorNotes:  row.VendorNotes,
		CreatedAt:    row.CreatedAt,
	}
}

func newBulkOrderListResponse(rows []models.BulkOrder) []bulkOrderResponse {
	out := make([]bulkOrderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newBulkOrderResponse(&rows[i]))
	}
	return out
}

// BulkOrderSubmit files a catering request with a canteen.
func BulkOrderSubmit(svc bulksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Submit(r.Context(), userID, bulksvc.SubmitInput{
			CanteenID:    body.CanteenID,
			Description:  body.Description,
			HeadCount:    body.HeadCount,
			PickupDate:   body.PickupDate,
			PickupTime:   body.PickupTime,
			ContactName:  body.ContactName,
			ContactPhone: body.ContactPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBulkOrderResponse(row))
	}
}

// BulkOrderList shows the caller's catering requests.
func BulkOrderList(svc bulksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBulkOrderListResponse(rows))
	}
}

// VendorBulkOrderList shows requests filed against the vendor's canteen.
func VendorBulkOrderList(svc bulksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk orders service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForCanteen(r.Context(), canteenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBulkOrderListResponse(rows))
	}
}

// VendorBulkOrderReview accepts, rejects or fulfils a catering request.
func VendorBulkOrderReview(svc bulksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk orders service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId", "bulk order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkOrderReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseBulkOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bulk order status"))
			return
		}

		row, err := svc.Review(r.Context(), canteenID, requestID, next, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBulkOrderResponse(row))
	}
}
