package canteens

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
	FindByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error)
	List(ctx context.Context, onlyOpen bool) ([]models.Canteen, error)
	Create(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error)
	Update(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error)
}

// Service exposes canteen directory operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error)
	List(ctx context.Context, onlyOpen bool) ([]models.Canteen, error)
	Create(ctx context.Context, input UpsertInput) (*models.Canteen, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Canteen, error)
	SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Canteen, error)
}

type service struct {
	repo repository
}

// NewService builds a canteen service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("canteen repository required")
	}
	return &service{repo: repo}, nil
}

// UpsertInput carries canteen profile fields.
type UpsertInput struct {
	Name        string
	Location    *string
	OpeningTime *string
	ClosingTime *string
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	canteen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "canteen not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load canteen")
	}
	return canteen, nil
}

func (s *service) List(ctx context.Context, onlyOpen bool) ([]models.Canteen, error) {
	rows, err := s.repo.List(ctx, onlyOpen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list canteens")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Canteen, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen name is required")
	}
	canteen := &models.Canteen{
		Name:        name,
		Location:    input.Location,
		OpeningTime: input.OpeningTime,
		ClosingTime: input.ClosingTime,
		IsOpen:      true,
	}
	created, err := s.repo.Create(ctx, canteen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create canteen")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Canteen, error) {
	canteen, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		canteen.Name = name
	}
	if input.Location != nil {
		canteen.Location = input.Location
	}
	if input.OpeningTime != nil {
		canteen.OpeningTime = input.OpeningTime
	}
	if input.ClosingTime != nil {
		canteen.ClosingTime = input.ClosingTime
	}
	updated, err := s.repo.Update(ctx, canteen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update canteen")
	}
	return updated, nil
}

func (s *service) SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Canteen, error) {
	canteen, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	canteen.IsOpen = open
	updated, err := s.repo.Update(ctx, canteen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update canteen")
	}
	return updated, nil
}
