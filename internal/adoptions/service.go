package adoptions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/cartpets"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

// CountDayThreshold is the sweep count at which a resolved request is purged.
const CountDayThreshold = 7

const approvedIndex = "ux_adoption_requests_approved_pet_user"

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	cccdPattern  = regexp.MustCompile(`^\d{12}$`)
)

// petStatusFor is the pet and reservation state implied by a request status.
var petStatusFor = map[enums.AdoptionStatus]enums.PetStatus{
	enums.AdoptionStatusApproved: enums.PetStatusAdopted,
	enums.AdoptionStatusRejected: enums.PetStatusAvailable,
	enums.AdoptionStatusPending:  enums.PetStatusAvailable,
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput is an applicant's request for a pet.
type CreateInput struct {
	UserID      uuid.UUID
	PetID       uuid.UUID
	Name        string
	Address     string
	PhoneNumber string
	CCCD        string
}

// SweepResult summarises one count-day pass.
type SweepResult struct {
	Scanned     int `json:"scanned"`
	Incremented int `json:"incremented"`
	Deleted     int `json:"deleted"`
}

// Service drives the adoption request state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.AdoptionRequest, error)
	List(ctx context.Context, principal auth.Principal, status *enums.AdoptionStatus) ([]models.AdoptionRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) (*models.AdoptionRequest, error)
	SweepCountDay(ctx context.Context) (SweepResult, error)
}

type ServiceParams struct {
	Repo     *Repository
	CartPets *cartpets.Repository
	Pets     *pets.Repository
	Tx       txRunner
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	cartPets *cartpets.Repository
	pets     *pets.Repository
	tx       txRunner
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("adoption repository required")
	}
	if params.CartPets == nil {
		return nil, fmt.Errorf("cart pet repository required")
	}
	if params.Pets == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		cartPets: params.CartPets,
		pets:     params.Pets,
		tx:       params.Tx,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.AdoptionRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	if _, err := s.pets.FindByID(ctx, input.PetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pet")
	}
	for _, status := range []enums.AdoptionStatus{enums.AdoptionStatusApproved, enums.AdoptionStatusPending} {
		exists, err := s.repo.ExistsWithStatus(ctx, input.PetID, input.UserID, status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing requests")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an adoption request for this pet already exists").
				WithDetails(map[string]any{"status": status})
		}
	}

	req := &models.AdoptionRequest{
		ID:          uuid.New(),
		PetID:       input.PetID,
		UserID:      input.UserID,
		Name:        input.Name,
		Address:     input.Address,
		PhoneNumber: input.PhoneNumber,
		CCCD:        input.CCCD,
		Status:      enums.AdoptionStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}
		return s.cartPets.WithTx(tx).Track(ctx, input.UserID, input.PetID, enums.AdoptionStatusPending)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create adoption request")
	}
	s.logg.Info(s.logg.WithField(ctx, "adoption_request_id", req.ID.String()), "adoptions.created")
	return req, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, status *enums.AdoptionStatus) ([]models.AdoptionRequest, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	var owner *uuid.UUID
	if !principal.CanViewAll(auth.ResourceAdoptionRequests) {
		if principal.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		owner = &principal.UserID
	}
	rows, err := s.repo.List(ctx, owner, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list adoption requests")
	}
	return rows, nil
}

// UpdateStatus moves a request to status and fans the change out to the
// reservation and the pet in one transaction. Any status may follow any other.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) (*models.AdoptionRequest, error) {
	petStatus, ok := petStatusFor[status]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]string{"status": "must be one of pending, approved, rejected"})
	}

	var updated *models.AdoptionRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetStatus(ctx, id, status); err != nil {
			return err
		}
		if err := s.cartPets.WithTx(tx).Track(ctx, req.UserID, req.PetID, status); err != nil {
			return err
		}
		if err := s.pets.WithTx(tx).SetStatus(ctx, req.PetID, petStatus); err != nil {
			return err
		}
		req.Status = status
		if req.Pet != nil {
			req.Pet.Status = petStatus
		}
		updated = req
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "adoption request not found")
	case db.IsUniqueViolation(err, approvedIndex), db.IsUniqueViolation(err, "adoption_requests"):
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "pet already has an approved request from this user")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update adoption request")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"adoption_request_id": id.String(),
		"status":              status.String(),
	})
	s.logg.Info(logCtx, "adoptions.status_updated")
	return updated, nil
}

// SweepCountDay ages every resolved request by one tick and purges those
// that reach CountDayThreshold. Rows removed or reopened concurrently are
// skipped. Per-row failures are collected and the pass continues.
func (s *service) SweepCountDay(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	ids, err := s.repo.ResolvedIDs(ctx)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot adoption requests")
	}
	result.Scanned = len(ids)

	var errs error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		count, ok, err := s.repo.IncrementCountDay(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("increment %s: %w", id, err))
			continue
		}
		if !ok {
			continue
		}
		result.Incremented++
		if count < CountDayThreshold {
			continue
		}
		deleted, err := s.repo.DeleteExpired(ctx, id, CountDayThreshold)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		if deleted {
			result.Deleted++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"scanned":     result.Scanned,
		"incremented": result.Incremented,
		"deleted":     result.Deleted,
	})
	if errs != nil {
		s.logg.Error(logCtx, "adoptions.count_day_partial_failure", errs)
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "count-day sweep incomplete").
			WithDetails(map[string]any{"failures": len(multierr.Errors(errs))})
	}
	s.logg.Info(logCtx, "adoptions.count_day_swept")
	return result, nil
}

func validateCreate(in CreateInput) error {
	details := map[string]string{}
	if in.PetID == uuid.Nil {
		details["petId"] = "is required"
	}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(in.Address) == "" {
		details["address"] = "is required"
	}
	if !phonePattern.MatchString(in.PhoneNumber) {
		details["phoneNumber"] = "must be exactly 10 digits"
	}
	if !cccdPattern.MatchString(in.CCCD) {
		details["cccd"] = "must be exactly 12 digits"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
