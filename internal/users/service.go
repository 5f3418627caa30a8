package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service serves profile reads and account management.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
}

type service struct {
	repo   *Repository
	hasher passwordHasher
	logg   *logger.Logger
}

func NewService(repo *Repository, hasher passwordHasher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, hasher: hasher, logg: logg}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := &ListResult{Users: make([]UserDTO, 0, len(rows)), Meta: params.MetaFor(total)}
	for i := range rows {
		out.Users = append(out.Users, *FromModel(&rows[i]))
	}
	return out, nil
}

// Get is limited to the account owner and admins.
func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*UserDTO, error) {
	if err := ownerOrAdmin(principal, id); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*UserDTO, error) {
	if err := ownerOrAdmin(principal, id); err != nil {
		return nil, err
	}
	if input.Role != nil && !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can change roles")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	updates, err := s.changes(input)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			case db.IsUniqueViolation(err, ""):
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
		ctx = s.logg.WithField(s.logg.WithUserID(ctx, principal.UserID.String()), "target_user_id", id.String())
		s.logg.Info(ctx, "users.updated")
	}
	return s.Me(ctx, id)
}

// Delete is admin only. Accounts with invoices or funds are kept for the
// payment history and report STATE_CONFLICT.
func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if principal.Owns(id) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "admins cannot delete their own account")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "user has payment history")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	ctx = s.logg.WithField(s.logg.WithUserID(ctx, principal.UserID.String()), "target_user_id", id.String())
	s.logg.Info(ctx, "users.deleted")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

// changes turns input into column updates, collecting every invalid field.
func (s *service) changes(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	details := map[string]string{}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		switch {
		case username == "":
			details["username"] = "is required"
		case strings.Contains(username, "@"):
			details["username"] = "must not contain @"
		default:
			updates["username"] = username
		}
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.PhoneNumber != nil {
		if phonePattern.MatchString(*input.PhoneNumber) {
			updates["phone_number"] = *input.PhoneNumber
		} else {
			details["phoneNumber"] = "must be exactly 10 digits"
		}
	}
	if input.Role != nil {
		if input.Role.IsValid() {
			updates["role"] = *input.Role
		} else {
			details["role"] = "is not a known role"
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
		}
		updates["password_hash"] = hash
		updates["first_login"] = false
	}
	return updates, nil
}

func ownerOrAdmin(principal auth.Principal, id uuid.UUID) error {
	if principal.IsAdmin() || principal.Owns(id) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to access this user")
}
