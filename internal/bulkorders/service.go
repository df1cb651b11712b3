package bulkorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BulkOrder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.BulkOrder, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.BulkOrder, error)
	Create(ctx context.Context, row *models.BulkOrder) (*models.BulkOrder, error)
	Save(ctx context.Context, row *models.BulkOrder) (*models.BulkOrder, error)
}

// vendorReview lists the statuses a vendor may move a request into and
// from where. Fulfilled is only reachable from accepted.
var vendorReview = map[enums.BulkOrderStatus][]enums.BulkOrderStatus{
	enums.BulkOrderStatusRequested: {enums.BulkOrderStatusAccepted, enums.BulkOrderStatusRejected},
	enums.BulkOrderStatusAccepted:  {enums.BulkOrderStatusFulfilled, enums.BulkOrderStatusRejected},
}

// Service handles catering requests: customers submit them, vendors review.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.BulkOrder, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.BulkOrder, error)
	ListForCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.BulkOrder, error)
	Review(ctx context.Context, canteenID, requestID uuid.UUID, next enums.BulkOrderStatus, notes *string) (*models.BulkOrder, error)
}

// SubmitInput is a catering request as filed by a customer.
type SubmitInput struct {
	CanteenID    uuid.UUID
	Description  string
	HeadCount    int
	PickupDate   time.Time
	PickupTime   string
	ContactName  string
	ContactPhone string
}

type service struct {
	repo repository
	now  func() time.Time
}

// NewService builds the bulk orders service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bulk orders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.BulkOrder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateSubmit(input, s.now()); err != nil {
		return nil, err
	}

	row, err := s.repo.Create(ctx, &models.BulkOrder{
		UserID:       userID,
		CanteenID:    input.CanteenID,
		Status:       enums.BulkOrderStatusRequested,
		Description:  strings.TrimSpace(input.Description),
		HeadCount:    input.HeadCount,
		PickupDate:   input.PickupDate,
		PickupTime:   strings.TrimSpace(input.PickupTime),
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bulk order")
	}
	return row, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.BulkOrder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bulk orders")
	}
	return rows, nil
}

func (s *service) ListForCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.BulkOrder, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	rows, err := s.repo.ListByCanteen(ctx, canteenID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bulk orders")
	}
	return rows, nil
}

// Review moves a request through the vendor workflow and optionally records
// a note visible to the customer.
func (s *service) Review(ctx context.Context, canteenID, requestID uuid.UUID, next enums.BulkOrderStatus, notes *string) (*models.BulkOrder, error) {
	if canteenID == uuid.Nil || requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and request id are required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid bulk order status")
	}

	row, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bulk order")
	}
	if row.CanteenID != canteenID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "bulk order belongs to another canteen")
	}
	if row.Status == next {
		return row, nil
	}
	if !reviewAllowed(row.Status, next) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move bulk order from %s to %s", row.Status, next))
	}

	row.Status = next
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed != "" {
			row.VendorNotes = &trimmed
		}
	}

	updated, err := s.repo.Save(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bulk order")
	}
	return updated, nil
}

func validateSubmit(input SubmitInput, now time.Time) error {
	if input.CanteenID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.HeadCount < 10 {
		return pkgerrors.New(pkgerrors.CodeValidation, "bulk orders require at least 10 heads")
	}
	if input.PickupDate.Before(now.Truncate(24 * time.Hour)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup date must be in the future")
	}
	if strings.TrimSpace(input.PickupTime) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup time is required")
	}
	if strings.TrimSpace(input.ContactName) == "" || strings.TrimSpace(input.ContactPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name and phone are required")
	}
	return nil
}

func reviewAllowed(from, to enums.BulkOrderStatus) bool {
	for _, allowed := range vendorReview[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
