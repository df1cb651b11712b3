package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartcanteen/canteen-backend/pkg/db/models"
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type menuLoader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type canteenLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error)
}

// Service exposes cart persistence operations. Every mutation runs in a
// transaction and returns the cart as stored afterwards.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.Cart, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	menu     menuLoader
	canteens canteenLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, menu menuLoader, canteens canteenLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu loader required")
	}
	if canteens == nil {
		return nil, fmt.Errorf("canteen loader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		menu:     menu,
		canteens: canteens,
	}, nil
}

// AddLineInput captures the payload required to add one menu item to the cart.
type AddLineInput struct {
	MenuItemID     uuid.UUID
	Quantity       int
	Customizations types.Customizations
}

// Get returns the user's active cart. A user without a stored cart gets an
// empty unsaved one so callers never handle a missing-cart case.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddLine adds a menu item to the cart, merging into an existing line when
// the item and customizations match. The first line pins the cart to the
// item's canteen; items from any other canteen are rejected until the cart
// is cleared.
func (s *service) AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.menu.GetItem(ctx, input.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "menu item is not available")
	}
	if input.Quantity < item.MinQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity below minimum of %d", item.MinQuantity))
	}

	canteen, err := s.canteens.GetByID(ctx, item.CanteenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "canteen not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load canteen")
	}
	if !canteen.IsOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "canteen is currently closed")
	}

	// Fast-fail on an obvious canteen mismatch before opening a transaction.
	// The same check runs again inside the transaction against fresh state.
	if existing, err := s.repo.FindActiveByUser(ctx, userID); err == nil {
		if len(existing.Lines) > 0 && existing.CanteenID != nil && *existing.CanteenID != item.CanteenID {
			return nil, pkgerrors.New(pkgerrors.CodeCrossVendorConflict,
				fmt.Sprintf("cart already holds items from %s", derefName(existing.CanteenName)))
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cart, err = txRepo.Create(ctx, &models.Cart{
				UserID: userID,
				Status: enums.CartStatusActive,
			})
			if err != nil {
				return err
			}
		}

		if len(cart.Lines) > 0 && cart.CanteenID != nil && *cart.CanteenID != item.CanteenID {
			return pkgerrors.New(pkgerrors.CodeCrossVendorConflict,
				fmt.Sprintf("cart already holds items from %s", derefName(cart.CanteenName)))
		}

		if cart.CanteenID == nil || len(cart.Lines) == 0 {
			canteenID := item.CanteenID
			canteenName := canteen.Name
			cart.CanteenID = &canteenID
			cart.CanteenName = &canteenName
			if _, err := txRepo.Update(ctx, cart); err != nil {
				return err
			}
		}

		if merged := findMatchingLine(cart.Lines, item.ID, input.Customizations); merged != nil {
			merged.Quantity = clampQuantity(merged.Quantity+input.Quantity, item.MaxQuantity)
			if err := txRepo.UpdateLine(ctx, merged); err != nil {
				return err
			}
		} else {
			line := &models.CartLine{
				CartID:         cart.ID,
				MenuItemID:     item.ID,
				Name:           item.Name,
				UnitPricePaise: item.PricePaise,
				Quantity:       clampQuantity(input.Quantity, item.MaxQuantity),
				CanteenID:      item.CanteenID,
				CanteenName:    canteen.Name,
				Additions:      input.Customizations.Additions,
				Notes:          input.Customizations.Notes,
				Position:       nextPosition(cart.Lines),
			}
			if err := txRepo.CreateLine(ctx, line); err != nil {
				return err
			}
		}

		result, err = txRepo.FindActiveByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateLineQuantity sets the quantity on one line. A quantity below 1
// removes the line; an unknown line id leaves the cart untouched.
func (s *service) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = emptyCart(userID)
				return nil
			}
			return err
		}

		line := findLineByID(cart.Lines, lineID)
		if line == nil {
			result = cart
			return nil
		}

		if quantity < 1 {
			if err := txRepo.DeleteLine(ctx, cart.ID, lineID); err != nil {
				return err
			}
		} else {
			line.Quantity = quantity
			if err := txRepo.UpdateLine(ctx, line); err != nil {
				return err
			}
		}

		result, err = s.finishMutation(ctx, txRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLine deletes one line. Removing a line that is not present is a no-op.
func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = emptyCart(userID)
				return nil
			}
			return err
		}

		if err := txRepo.DeleteLine(ctx, cart.ID, lineID); err != nil {
			return err
		}

		result, err = s.finishMutation(ctx, txRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear drops every line and releases the canteen pin.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = emptyCart(userID)
				return nil
			}
			return err
		}

		if err := txRepo.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		cart.Lines = nil
		cart.CanteenID = nil
		cart.CanteenName = nil
		if _, err := txRepo.Update(ctx, cart); err != nil {
			return err
		}

		result, err = txRepo.FindActiveByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finishMutation reloads the cart and releases the canteen pin when the last
// line was removed.
func (s *service) finishMutation(ctx context.Context, txRepo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := txRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 && cart.CanteenID != nil {
		cart.CanteenID = nil
		cart.CanteenName = nil
		if _, err := txRepo.Update(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

func emptyCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{UserID: userID, Status: enums.CartStatusActive}
}

func findMatchingLine(lines []models.CartLine, menuItemID uuid.UUID, customizations types.Customizations) *models.CartLine {
	for i := range lines {
		if lines[i].MenuItemID != menuItemID {
			continue
		}
		if lines[i].Customizations().Equal(customizations) {
			return &lines[i]
		}
	}
	return nil
}

func findLineByID(lines []models.CartLine, lineID uuid.UUID) *models.CartLine {
	for i := range lines {
		if lines[i].ID == lineID {
			return &lines[i]
		}
	}
	return nil
}

func nextPosition(lines []models.CartLine) int {
	next := 0
	for _, line := range lines {
		if line.Position >= next {
			next = line.Position + 1
		}
	}
	return next
}

func clampQuantity(quantity, max int) int {
	if max > 0 && quantity > max {
		return max
	}
	return quantity
}

func derefName(name *string) string {
	if name == nil {
		return "another canteen"
	}
	return *name
}
