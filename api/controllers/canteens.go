package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	canteenssvc "github.com/smartcanteen/canteen-backend/internal/canteens"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type canteenRequest struct {
	Name        string  `json:"name" validate:"required"`
	Location    *string `json:"location"`
	OpeningTime *string `json:"opening_time"`
	ClosingTime *string `json:"closing_time"`
}

type canteenOpenRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

type canteenResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Location    *string   `json:"location,omitempty"`
	OpeningTime *string   `json:"opening_time,omitempty"`
	ClosingTime *string   `json:"closing_time,omitempty"`
	IsOpen      bool      `json:"is_open"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCanteenResponse(canteen *models.Canteen) canteenResponse {
	return canteenResponse{
		ID:          canteen.ID,
		Name:        canteen.Name,
		Location:    canteen.Location,
		OpeningTime: canteen.OpeningTime,
		ClosingTime: canteen.ClosingTime,
		IsOpen:      canteen.IsOpen,
		CreatedAt:   canteen.CreatedAt,
	}
}

func newCanteenListResponse(rows []models.Canteen) []canteenResponse {
	out := make([]canteenResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newCanteenResponse(&rows[i]))
	}
	return out
}

// CanteenList returns canteens, optionally filtered to open ones.
func CanteenList(svc canteenssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteens service unavailable"))
			return
		}

		onlyOpen, err := validators.ParseQueryBool(r, "open", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), onlyOpen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCanteenListResponse(rows))
	}
}

// CanteenFetch returns one canteen by id.
func CanteenFetch(svc canteenssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteens service unavailable"))
			return
		}

		canteenID, err := pathUUID(r, "canteenId", "canteen id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.GetByID(r.Context(), canteenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCanteenResponse(canteen))
	}
}

// CanteenCreate registers a new canteen. Admin only.
func CanteenCreate(svc canteenssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteens service unavailable"))
			return
		}

		var body canteenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.Create(r.Context(), canteenssvc.UpsertInput{
			Name:        body.Name,
			Location:    body.Location,
			OpeningTime: body.OpeningTime,
			ClosingTime: body.ClosingTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCanteenResponse(canteen))
	}
}

// CanteenUpdate edits a canteen profile. Admin only.
func CanteenUpdate(svc canteenssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteens service unavailable"))
			return
		}

		canteenID, err := pathUUID(r, "canteenId", "canteen id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body canteenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.Update(r.Context(), canteenID, canteenssvc.UpsertInput{
			Name:        body.Name,
			Location:    body.Location,
			OpeningTime: body.OpeningTime,
			ClosingTime: body.ClosingTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCanteenResponse(canteen))
	}
}

// CanteenSetOpen flips the vendor's own storefront open or closed.
func CanteenSetOpen(svc canteenssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteens service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body canteenOpenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.SetOpen(r.Context(), canteenID, *body.IsOpen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCanteenResponse(canteen))
	}
}
