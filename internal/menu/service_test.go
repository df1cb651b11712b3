package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

type stubMenuRepo struct {
	items map[uuid.UUID]*models.MenuItem
}

func newStubMenuRepo(items ...*models.MenuItem) *stubMenuRepo {
	repo := &stubMenuRepo{items: map[uuid.UUID]*models.MenuItem{}}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (s *stubMenuRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubMenuRepo) ListByCanteen(ctx context.Context, canteenID uuid.UUID, onlyAvailable bool) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	for _, item := range s.items {
		if item.CanteenID != canteenID {
			continue
		}
		if onlyAvailable && !item.IsAvailable {
			continue
		}
		rows = append(rows, *item)
	}
	return rows, nil
}

func (s *stubMenuRepo) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	item.ID = uuid.New()
	s.items[item.ID] = item
	return item, nil
}

func (s *stubMenuRepo) Update(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	s.items[item.ID] = item
	return item, nil
}

func (s *stubMenuRepo) Delete(ctx context.Context, canteenID, id uuid.UUID) error {
	delete(s.items, id)
	return nil
}

func TestCreateItemValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubMenuRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	canteenID := uuid.New()

	if _, err := svc.CreateItem(context.Background(), canteenID, ItemInput{Name: "", PricePaise: 100}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.CreateItem(context.Background(), canteenID, ItemInput{Name: "Chai", PricePaise: 0}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}

	item, err := svc.CreateItem(context.Background(), canteenID, ItemInput{Name: " Chai ", PricePaise: 1500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Name != "Chai" {
		t.Fatalf("expected trimmed name, got %q", item.Name)
	}
	if item.MinQuantity != 1 || item.MaxQuantity != 10 {
		t.Fatalf("expected default quantity bounds, got %d..%d", item.MinQuantity, item.MaxQuantity)
	}
	if !item.IsAvailable {
		t.Fatal("expected new items to start available")
	}
}

func TestUpdateItemOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	item := &models.MenuItem{ID: uuid.New(), CanteenID: owner, Name: "Dosa", PricePaise: 5000, MinQuantity: 1, MaxQuantity: 5}
	svc, err := NewService(newStubMenuRepo(item))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.UpdateItem(context.Background(), uuid.New(), item.ID, ItemInput{Name: "Dosa", PricePaise: 6000})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign canteen, got %v", err)
	}

	updated, err := svc.UpdateItem(context.Background(), owner, item.ID, ItemInput{Name: "Dosa", PricePaise: 6000})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PricePaise != 6000 {
		t.Fatalf("expected price update, got %d", updated.PricePaise)
	}
}

func TestSetAvailability(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	item := &models.MenuItem{ID: uuid.New(), CanteenID: owner, Name: "Idli", PricePaise: 3000, IsAvailable: true}
	svc, err := NewService(newStubMenuRepo(item))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	updated, err := svc.SetAvailability(context.Background(), owner, item.ID, false)
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if updated.IsAvailable {
		t.Fatal("expected item to be unavailable")
	}
}

func TestDeleteItemUnknown(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubMenuRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.DeleteItem(context.Background(), uuid.New(), uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
