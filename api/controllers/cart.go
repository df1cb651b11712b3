package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	cartsvc "github.com/smartcanteen/canteen-backend/internal/cart"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
	"github.com/smartcanteen/canteen-backend/pkg/types"
)

type addCartLineRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
	Additions  []string  `json:"additions"`
	Notes      string    `json:"notes"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=0"`
}

type cartLineResponse struct {
	ID             uuid.UUID `json:"id"`
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	Name           string    `json:"name"`
	UnitPricePaise int       `json:"unit_price_paise"`
	Quantity       int       `json:"quantity"`
	Additions      []string  `json:"additions,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	LineTotalPaise int       `json:"line_total_paise"`
}

// cartResponse is the client-facing cart view. Totals are computed from the
// lines on every render rather than read from storage.
type cartResponse struct {
	ID              uuid.UUID          `json:"id"`
	CanteenID       *uuid.UUID         `json:"canteen_id,omitempty"`
	CanteenName     *string            `json:"canteen_name,omitempty"`
	Status          string             `json:"status"`
	Lines           []cartLineResponse `json:"lines"`
	TotalItems      int                `json:"total_items"`
	SubtotalPaise   int                `json:"subtotal_paise"`
	SubtotalDisplay string             `json:"subtotal_display"`
	IsEmpty         bool               `json:"is_empty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLineResponse{
			ID:             line.ID,
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			UnitPricePaise: line.UnitPricePaise,
			Quantity:       line.Quantity,
			Additions:      []string(line.Additions),
			Notes:          line.Notes,
			LineTotalPaise: line.LineTotalPaise(),
		})
	}

	return cartResponse{
		ID:              cart.ID,
		CanteenID:       cart.CanteenID,
		CanteenName:     cart.CanteenName,
		Status:          string(cart.Status),
		Lines:           lines,
		TotalItems:      cart.TotalItems(),
		SubtotalPaise:   cart.SubtotalPaise(),
		SubtotalDisplay: types.RupeeString(cart.SubtotalPaise()),
		IsEmpty:         len(cart.Lines) == 0,
		UpdatedAt:       cart.UpdatedAt,
	}
}

// CartFetch returns the caller's active cart, empty if none exists.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartAddLine adds a menu item to the cart. The first line pins the cart to
// that item's canteen; items from another canteen are rejected until the
// cart is cleared.
func CartAddLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addCartLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddLine(r.Context(), userID, cartsvc.AddLineInput{
			MenuItemID: body.MenuItemID,
			Quantity:   body.Quantity,
			Customizations: types.Customizations{
				Additions: body.Additions,
				Notes:     body.Notes,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartUpdateLine changes a line's quantity; zero removes the line.
func CartUpdateLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := pathUUID(r, "lineId", "cart line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCartLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateLineQuantity(r.Context(), userID, lineID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartRemoveLine deletes one line from the cart.
func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := pathUUID(r, "lineId", "cart line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveLine(r.Context(), userID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartClear empties the cart and releases the canteen pin.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}
