package promotions

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
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Promotion, error)
	ListActive(ctx context.Context, canteenID uuid.UUID, at time.Time) ([]models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
}

// Service manages vendor promotions and computes checkout discounts.
type Service interface {
	ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Promotion, error)
	Create(ctx context.Context, canteenID uuid.UUID, input Input) (*models.Promotion, error)
	Update(ctx context.Context, canteenID, id uuid.UUID, input Input) (*models.Promotion, error)
	Deactivate(ctx context.Context, canteenID, id uuid.UUID) (*models.Promotion, error)
	BestDiscount(ctx context.Context, canteenID uuid.UUID, subtotalPaise int) (int, *models.Promotion, error)
}

type service struct {
	repo repository
	now  func() time.Time
}

// NewService builds a promotions service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Input carries promotion fields. Percentage values are whole percents,
// fixed values are paise.
type Input struct {
	Title    string
	Type     enums.PromotionType
	Value    int
	MinSpend int
	StartsAt time.Time
	EndsAt   time.Time
}

func (s *service) ListByCanteen(ctx context.Context, canteenID uuid.UUID) ([]models.Promotion, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	rows, err := s.repo.ListByCanteen(ctx, canteenID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, canteenID uuid.UUID, input Input) (*models.Promotion, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	promo := &models.Promotion{
		CanteenID: canteenID,
		Title:     strings.TrimSpace(input.Title),
		Type:      input.Type,
		Value:     input.Value,
		MinSpend:  input.MinSpend,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		IsActive:  true,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, canteenID, id uuid.UUID, input Input) (*models.Promotion, error) {
	promo, err := s.owned(ctx, canteenID, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	promo.Title = strings.TrimSpace(input.Title)
	promo.Type = input.Type
	promo.Value = input.Value
	promo.MinSpend = input.MinSpend
	promo.StartsAt = input.StartsAt
	promo.EndsAt = input.EndsAt

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return updated, nil
}

func (s *service) Deactivate(ctx context.Context, canteenID, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.owned(ctx, canteenID, id)
	if err != nil {
		return nil, err
	}
	promo.IsActive = false
	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return updated, nil
}

// BestDiscount returns the largest discount any live promotion grants on the
// subtotal, capped at the subtotal itself. No matching promotion is not an
// error; the discount is simply zero.
func (s *service) BestDiscount(ctx context.Context, canteenID uuid.UUID, subtotalPaise int) (int, *models.Promotion, error) {
	if canteenID == uuid.Nil || subtotalPaise <= 0 {
		return 0, nil, nil
	}

	promos, err := s.repo.ListActive(ctx, canteenID, s.now().UTC())
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotions")
	}

	best := 0
	var bestPromo *models.Promotion
	for i := range promos {
		promo := &promos[i]
		if subtotalPaise < promo.MinSpend {
			continue
		}
		discount := DiscountPaise(promo, subtotalPaise)
		if discount > best {
			best = discount
			bestPromo = promo
		}
	}
	return best, bestPromo, nil
}

// DiscountPaise computes the discount one promotion grants on a subtotal.
func DiscountPaise(promo *models.Promotion, subtotalPaise int) int {
	var discount int
	switch promo.Type {
	case enums.PromotionTypePercentage:
		discount = subtotalPaise * promo.Value / 100
	case enums.PromotionTypeFixed:
		discount = promo.Value
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (s *service) owned(ctx context.Context, canteenID, id uuid.UUID) (*models.Promotion, error) {
	if canteenID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and promotion id are required")
	}
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if promo.CanteenID != canteenID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "promotion belongs to another canteen")
	}
	return promo, nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion title is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion type")
	}
	if input.Value <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion value must be positive")
	}
	if input.Type == enums.PromotionTypePercentage && input.Value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if input.MinSpend < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min spend cannot be negative")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion window must end after it starts")
	}
	return nil
}
