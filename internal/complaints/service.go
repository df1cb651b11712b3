package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Complaint, error)
	Create(ctx context.Context, row *models.Complaint) (*models.Complaint, error)
	Save(ctx context.Context, row *models.Complaint) (*models.Complaint, error)
}

type orderLoader interface {
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
}

// Service lets customers file complaints against their own placed orders
// and vendors respond to them.
type Service interface {
	File(ctx context.Context, userID uuid.UUID, input FileInput) (*models.Complaint, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error)
	ListForCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Complaint, error)
	Respond(ctx context.Context, canteenID, complaintID uuid.UUID, status enums.ComplaintStatus, response string) (*models.Complaint, error)
}

// FileInput is a new complaint referencing one of the customer's orders.
type FileInput struct {
	OrderID uuid.UUID
	Subject string
	Body    string
}

type service struct {
	repo   repository
	orders orderLoader
}

// NewService builds the complaints service.
func NewService(repo repository, orders orderLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("complaints repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) File(ctx context.Context, userID uuid.UUID, input FileInput) (*models.Complaint, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and body are required")
	}

	order, err := s.orders.FindByIDAndUser(ctx, input.OrderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order was never placed")
	}

	row, err := s.repo.Create(ctx, &models.Complaint{
		UserID:    userID,
		OrderID:   order.ID,
		CanteenID: order.CanteenID,
		Subject:   subject,
		Body:      body,
		Status:    enums.ComplaintStatusOpen,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create complaint")
	}
	return row, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list complaints")
	}
	return rows, nil
}

func (s *service) ListForCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Complaint, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	rows, err := s.repo.ListByCanteen(ctx, canteenID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list complaints")
	}
	return rows, nil
}

// Respond records the vendor's reply and moves the complaint to reviewed or
// resolved. Reopening a resolved complaint is not supported.
func (s *service) Respond(ctx context.Context, canteenID, complaintID uuid.UUID, status enums.ComplaintStatus, response string) (*models.Complaint, error) {
	if canteenID == uuid.Nil || complaintID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and complaint id are required")
	}
	if status != enums.ComplaintStatusReviewed && status != enums.ComplaintStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be reviewed or resolved")
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response is required")
	}

	row, err := s.repo.FindByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "complaint not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complaint")
	}
	if row.CanteenID != canteenID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "complaint belongs to another canteen")
	}
	if row.Status == enums.ComplaintStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "complaint is already resolved")
	}

	row.Status = status
	row.Response = &response

	updated, err := s.repo.Save(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save complaint")
	}
	return updated, nil
}
