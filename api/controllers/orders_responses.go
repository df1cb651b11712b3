package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/types"
)

type orderLineResponse struct {
	ID             uuid.UUID `json:"id"`
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	Name           string    `json:"name"`
	UnitPricePaise int       `json:"unit_price_paise"`
	Quantity       int       `json:"quantity"`
	Additions      []string  `json:"additions,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

type paymentSessionResponse struct {
	ID                uuid.UUID  `json:"id"`
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	AmountPaise       int        `json:"amount_paise"`
	Currency          string     `json:"currency"`
	ProviderOrderID   *string    `json:"provider_order_id,omitempty"`
	ProviderPaymentID *string    `json:"provider_payment_id,omitempty"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

type orderResponse struct {
	ID            uuid.UUID               `json:"id"`
	CanteenID     uuid.UUID               `json:"canteen_id"`
	CanteenName   string                  `json:"canteen_name"`
	Status        string                  `json:"status"`
	PaymentMethod string                  `json:"payment_method"`
	PaymentStatus string                  `json:"payment_status"`
	SubtotalPaise int                     `json:"subtotal_paise"`
	DiscountPaise int                     `json:"discount_paise"`
	TotalPaise    int                     `json:"total_paise"`
	TotalDisplay  string                  `json:"total_display"`
	Receipt       string                  `json:"receipt"`
	PlacedAt      *time.Time              `json:"placed_at,omitempty"`
	Lines         []orderLineResponse     `json:"lines"`
	Session       *paymentSessionResponse `json:"payment_session,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func newPaymentSessionResponse(session *models.PaymentSession) *paymentSessionResponse {
	if session == nil {
		return nil
	}
	return &paymentSessionResponse{
		ID:                session.ID,
		Method:            string(session.Method),
		Status:            string(session.Status),
		AmountPaise:       session.AmountPaise,
		Currency:          session.Currency,
		ProviderOrderID:   session.ProviderOrderID,
		ProviderPaymentID: session.ProviderPaymentID,
		FailureReason:     session.FailureReason,
		CompletedAt:       session.CompletedAt,
	}
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ID:             line.ID,
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			UnitPricePaise: line.UnitPricePaise,
			Quantity:       line.Quantity,
			Additions:      []string(line.Additions),
			Notes:          line.Notes,
		})
	}

	return orderResponse{
		ID:            order.ID,
		CanteenID:     order.CanteenID,
		CanteenName:   order.CanteenName,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		SubtotalPaise: order.SubtotalPaise,
		DiscountPaise: order.DiscountPaise,
		TotalPaise:    order.TotalPaise,
		TotalDisplay:  types.RupeeString(order.TotalPaise),
		Receipt:       order.Receipt,
		PlacedAt:      order.PlacedAt,
		Lines:         lines,
		Session:       newPaymentSessionResponse(order.Session),
		CreatedAt:     order.CreatedAt,
	}
}

func newOrderListResponse(rows []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderResponse(&rows[i]))
	}
	return out
}
