package cartpets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

type petLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
}

// AddInput reserves quantity of a pet for the caller.
type AddInput struct {
	UserID   uuid.UUID
	PetID    uuid.UUID
	Quantity int
}

// Service manages a user's pet reservations.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.CartPet, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.CartPet, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.CartPet, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) (*models.CartPet, error)
}

type service struct {
	repo *Repository
	pets petLookup
}

func NewService(repo *Repository, pets petLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart pet repository required")
	}
	if pets == nil {
		return nil, fmt.Errorf("pet lookup required")
	}
	return &service{repo: repo, pets: pets}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.CartPet, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	pet, err := s.pets.FindByID(ctx, input.PetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pet")
	}
	if input.Quantity > pet.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available quantity").
			WithDetails(map[string]any{"available": pet.Quantity})
	}
	row, err := s.repo.Reserve(ctx, input.UserID, input.PetID, input.Quantity, enums.AdoptionStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve pet")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CartPet, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart pets")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.CartPet, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart pet")
	}
	if !principal.CanViewAll(auth.ResourceAdoptionRequests) && !principal.Owns(row.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart pet not found")
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart pet")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) (*models.CartPet, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	found, err := s.repo.SetStatusByID(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart pet")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart pet not found")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart pet")
	}
	return row, nil
}
