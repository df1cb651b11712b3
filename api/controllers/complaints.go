package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	complaintssvc "github.com/smartcanteen/canteen-backend/internal/complaints"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type fileComplaintRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Subject string    `json:"subject" validate:"required"`
	Body    string    `json:"body" validate:"required"`
}

type respondComplaintRequest struct {
	Status   string `json:"status" validate:"required"`
	Response string `json:"response" validate:"required"`
}

type complaintResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	CanteenID uuid.UUID `json:"canteen_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Response  *string   `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newComplaintResponse(row *models.Complaint) complaintResponse {
	return complaintResponse{
		ID:        row.ID,
		OrderID:   row.OrderID,
		CanteenID: row.CanteenID,
		Subject:   row.Subject,
		Body:      row.Body,
		Status:    string(row.Status),
		Response:  row.Response,
		CreatedAt: row.CreatedAt,
	}
}

func newComplaintListResponse(rows []models.Complaint) []complaintResponse {
	out := make([]complaintResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newComplaintResponse(&rows[i]))
	}
	return out
}

// ComplaintFile opens a complaint against one of the caller's orders.
func ComplaintFile(svc complaintssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body fileComplaintRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.File(r.Context(), userID, complaintssvc.FileInput{
			OrderID: body.OrderID,
			Subject: body.Subject,
			Body:    body.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newComplaintResponse(row))
	}
}

// ComplaintList shows the caller's complaints.
func ComplaintList(svc complaintssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
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

		responses.WriteSuccess(w, newComplaintListResponse(rows))
	}
}

// VendorComplaintList shows complaints filed against the vendor's canteen.
func VendorComplaintList(svc complaintssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
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

		responses.WriteSuccess(w, newComplaintListResponse(rows))
	}
}

// VendorComplaintRespond records the vendor's answer and moves the status.
func VendorComplaintRespond(svc complaintssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaintID, err := pathUUID(r, "complaintId", "complaint id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body respondComplaintRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseComplaintStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid complaint status"))
			return
		}

		row, err := svc.Respond(r.Context(), canteenID, complaintID, status, body.Response)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newComplaintResponse(row))
	}
}
