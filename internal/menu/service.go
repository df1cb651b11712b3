package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID, onlyAvailable bool) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Delete(ctx context.Context, canteenID, id uuid.UUID) error
}

// Service exposes catalog operations. Writes are scoped to the owning
// canteen so one vendor can never edit another's menu.
type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID, onlyAvailable bool) ([]models.MenuItem, error)
	CreateItem(ctx context.Context, canteenID uuid.UUID, input ItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, canteenID, id uuid.UUID, input ItemInput) (*models.MenuItem, error)
	SetAvailability(ctx context.Context, canteenID, id uuid.UUID, available bool) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, canteenID, id uuid.UUID) error
}

type service struct {
	repo repository
}

// NewService builds a menu service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo}, nil
}

// ItemInput carries menu item fields. Prices are integer paise.
type ItemInput struct {
	Name            string
	Description     *string
	PricePaise      int
	Category        *string
	ImageURL        *string
	IsVegetarian    bool
	IsVegan         bool
	AddonOptions    []string
	MinQuantity     int
	MaxQuantity     int
	PrepTimeMinutes *int
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) ListByCanteen(ctx context.Context, canteenID uuid.UUID, onlyAvailable bool) ([]models.MenuItem, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	rows, err := s.repo.ListByCanteen(ctx, canteenID, onlyAvailable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return rows, nil
}

func (s *service) CreateItem(ctx context.Context, canteenID uuid.UUID, input ItemInput) (*models.MenuItem, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	if err := validateItemInput(&input); err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		CanteenID:       canteenID,
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		PricePaise:      input.PricePaise,
		Category:        input.Category,
		ImageURL:        input.ImageURL,
		IsAvailable:     true,
		IsVegetarian:    input.IsVegetarian,
		IsVegan:         input.IsVegan,
		AddonOptions:    input.AddonOptions,
		MinQuantity:     input.MinQuantity,
		MaxQuantity:     input.MaxQuantity,
		PrepTimeMinutes: input.PrepTimeMinutes,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return created, nil
}

func (s *service) UpdateItem(ctx context.Context, canteenID, id uuid.UUID, input ItemInput) (*models.MenuItem, error) {
	item, err := s.ownedItem(ctx, canteenID, id)
	if err != nil {
		return nil, err
	}
	if err := validateItemInput(&input); err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Description = input.Description
	item.PricePaise = input.PricePaise
	item.Category = input.Category
	item.ImageURL = input.ImageURL
	item.IsVegetarian = input.IsVegetarian
	item.IsVegan = input.IsVegan
	item.AddonOptions = input.AddonOptions
	item.MinQuantity = input.MinQuantity
	item.MaxQuantity = input.MaxQuantity
	item.PrepTimeMinutes = input.PrepTimeMinutes

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return updated, nil
}

func (s *service) SetAvailability(ctx context.Context, canteenID, id uuid.UUID, available bool) (*models.MenuItem, error) {
	item, err := s.ownedItem(ctx, canteenID, id)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = available
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return updated, nil
}

func (s *service) DeleteItem(ctx context.Context, canteenID, id uuid.UUID) error {
	if _, err := s.ownedItem(ctx, canteenID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, canteenID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	return nil
}

func (s *service) ownedItem(ctx context.Context, canteenID, id uuid.UUID) (*models.MenuItem, error) {
	if canteenID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and item id are required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if item.CanteenID != canteenID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "menu item belongs to another canteen")
	}
	return item, nil
}

func validateItemInput(input *ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.PricePaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive paise")
	}
	if input.MinQuantity <= 0 {
		input.MinQuantity = 1
	}
	if input.MaxQuantity <= 0 {
		input.MaxQuantity = 10
	}
	if input.MaxQuantity < input.MinQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "max quantity below min quantity")
	}
	return nil
}
