package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	promosvc "github.com/smartcanteen/canteen-backend/internal/promotions"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type promotionRequest struct {
	Title    string    `json:"title" validate:"required"`
	Type     string    `json:"type" validate:"required"`
	Value    int       `json:"value" validate:"required,min=1"`
	MinSpend int       `json:"min_spend_paise" validate:"min=0"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type promotionResponse struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Value    int       `json:"value"`
	MinSpend int       `json:"min_spend_paise"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	IsActive bool      `json:"is_active"`
}

func newPromotionResponse(promo *models.Promotion) promotionResponse {
	return promotionResponse{
		ID:       promo.ID,
		Title:    promo.Title,
		Type:     string(promo.Type),
		Value:    promo.Value,
		MinSpend: promo.MinSpend,
		StartsAt: promo.StartsAt,
		EndsAt:   promo.EndsAt,
		IsActive: promo.IsActive,
	}
}

func newPromotionListResponse(rows []models.Promotion) []promotionResponse {
	out := make([]promotionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newPromotionResponse(&rows[i]))
	}
	return out
}

func toPromotionInput(body promotionRequest) (promosvc.Input, error) {
	promoType, err := enums.ParsePromotionType(body.Type)
	if err != nil {
		return promosvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type")
	}
	return promosvc.Input{
		Title:    body.Title,
		Type:     promoType,
		Value:    body.Value,
		MinSpend: body.MinSpend,
		StartsAt: body.StartsAt,
		EndsAt:   body.EndsAt,
	}, nil
}

// PromotionsByCanteen is the public listing of a canteen's running offers.
func PromotionsByCanteen(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		canteenID, err := pathUUID(r, "canteenId", "canteen id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByCanteen(r.Context(), canteenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionListResponse(rows))
	}
}

// VendorPromotionList shows the vendor's own promotions.
func VendorPromotionList(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByCanteen(r.Context(), canteenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionListResponse(rows))
	}
}

// VendorPromotionCreate starts a new offer for the vendor's canteen.
func VendorPromotionCreate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body promotionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toPromotionInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Create(r.Context(), canteenID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPromotionResponse(promo))
	}
}

// VendorPromotionUpdate edits an existing offer.
func VendorPromotionUpdate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promoID, err := pathUUID(r, "promotionId", "promotion id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body promotionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toPromotionInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Update(r.Context(), canteenID, promoID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}

// VendorPromotionDeactivate retires the offer without deleting it.
func VendorPromotionDeactivate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promoID, err := pathUUID(r, "promotionId", "promotion id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Deactivate(r.Context(), canteenID, promoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}
