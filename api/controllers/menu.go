package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/responses"
	"github.com/smartcanteen/canteen-backend/api/validators"
	menusvc "github.com/smartcanteen/canteen-backend/internal/menu"
	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

type menuItemRequest struct {
	Name            string   `json:"name" validate:"required"`
	Description     *string  `json:"description"`
	PricePaise      int      `json:"price_paise" validate:"required,min=1"`
	Category        *string  `json:"category"`
	ImageURL        *string  `json:"image_url"`
	IsVegetarian    bool     `json:"is_vegetarian"`
	IsVegan         bool     `json:"is_vegan"`
	AddonOptions    []string `json:"addon_options"`
	MinQuantity     int      `json:"min_quantity"`
	MaxQuantity     int      `json:"max_quantity"`
	PrepTimeMinutes *int     `json:"prep_time_minutes"`
}

type menuAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type menuItemResponse struct {
	ID              uuid.UUID `json:"id"`
	CanteenID       uuid.UUID `json:"canteen_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	PricePaise      int       `json:"price_paise"`
	Category        *string   `json:"category,omitempty"`
	ImageURL        *string   `json:"image_url,omitempty"`
	IsAvailable     bool      `json:"is_available"`
	IsVegetarian    bool      `json:"is_vegetarian"`
	IsVegan         bool      `json:"is_vegan"`
	AddonOptions    []string  `json:"addon_options,omitempty"`
	MinQuantity     int       `json:"min_quantity"`
	MaxQuantity     int       `json:"max_quantity"`
	PrepTimeMinutes *int      `json:"prep_time_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func newMenuItemResponse(item *models.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:              item.ID,
		CanteenID:       item.CanteenID,
		Name:            item.Name,
		Description:     item.Description,
		PricePaise:      item.PricePaise,
		Category:        item.Category,
		ImageURL:        item.ImageURL,
		IsAvailable:     item.IsAvailable,
		IsVegetarian:    item.IsVegetarian,
		IsVegan:         item.IsVegan,
		AddonOptions:    []string(item.AddonOptions),
		MinQuantity:     item.MinQuantity,
		MaxQuantity:     item.MaxQuantity,
		PrepTimeMinutes: item.PrepTimeMinutes,
		CreatedAt:       item.CreatedAt,
	}
}

func newMenuListResponse(rows []models.MenuItem) []menuItemResponse {
	out := make([]menuItemResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newMenuItemResponse(&rows[i]))
	}
	return out
}

func toItemInput(body menuItemRequest) menusvc.ItemInput {
	return menusvc.ItemInput{
		Name:            body.Name,
		Description:     body.Description,
		PricePaise:      body.PricePaise,
		Category:        body.Category,
		ImageURL:        body.ImageURL,
		IsVegetarian:    body.IsVegetarian,
		IsVegan:         body.IsVegan,
		AddonOptions:    body.AddonOptions,
		MinQuantity:     body.MinQuantity,
		MaxQuantity:     body.MaxQuantity,
		PrepTimeMinutes: body.PrepTimeMinutes,
	}
}

// MenuByCanteen is the public browse endpoint; customers only see items
// currently marked available.
func MenuByCanteen(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := pathUUID(r, "canteenId", "canteen id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByCanteen(r.Context(), canteenID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMenuListResponse(rows))
	}
}

// VendorMenuList returns the vendor's full catalog including hidden items.
func VendorMenuList(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByCanteen(r.Context(), canteenID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMenuListResponse(rows))
	}
}

// VendorMenuCreate adds a catalog item to the vendor's canteen.
func VendorMenuCreate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), canteenID, toItemInput(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newMenuItemResponse(item))
	}
}

// VendorMenuUpdate edits one of the vendor's items.
func VendorMenuUpdate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemId", "menu item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), canteenID, itemID, toItemInput(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMenuItemResponse(item))
	}
}

// VendorMenuSetAvailability toggles an item without removing it.
func VendorMenuSetAvailability(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemId", "menu item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body menuAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetAvailability(r.Context(), canteenID, itemID, *body.IsAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMenuItemResponse(item))
	}
}

// VendorMenuDelete removes an item from the catalog.
func VendorMenuDelete(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := currentCanteenID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemId", "menu item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), canteenID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
