package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// MediaLookup resolves image references.
type MediaLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	URLsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service manages the adoptable pet catalog.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*PetView, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PetView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*PetView, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo  *Repository
	media MediaLookup
}

func NewService(repo *Repository, media MediaLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	if media == nil {
		return nil, fmt.Errorf("media lookup required")
	}
	return &service{repo: repo, media: media}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PetView, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.requireMedia(ctx, input.ImageID); err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	pet := &models.Pet{
		ID:           uuid.New(),
		Name:         input.Name,
		Description:  input.Description,
		Age:          input.Age,
		Species:      input.Species,
		CoatColor:    input.CoatColor,
		Sex:          input.Sex,
		Breed:        input.Breed,
		Vaccinated:   input.Vaccinated,
		HealthStatus: input.HealthStatus,
		ImageID:      input.ImageID,
		Quantity:     quantity,
		Location:     input.Location,
		Keywords:     pq.StringArray(normalizeKeywords(input.Keywords)),
		Status:       enums.PetStatusAvailable,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pet")
	}
	return s.view(ctx, pet)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PetView, error) {
	updates, err := s.updatesFor(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pet")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete pet")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PetView, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pet")
	}
	return s.view(ctx, pet)
}

func (s *service) List(ctx context.Context, filters Filters, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pets")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ImageID)
	}
	urls, err := s.media.URLsByID(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve pet images")
	}
	out := &ListResult{Pets: make([]PetView, 0, len(rows)), Meta: params.MetaFor(total)}
	for _, row := range rows {
		out.Pets = append(out.Pets, toView(row, urls))
	}
	return out, nil
}

func (s *service) view(ctx context.Context, pet *models.Pet) (*PetView, error) {
	urls, err := s.media.URLsByID(ctx, []uuid.UUID{pet.ImageID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve pet image")
	}
	view := toView(*pet, urls)
	return &view, nil
}

func (s *service) requireMedia(ctx context.Context, id uuid.UUID) error {
	ok, err := s.media.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check media")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	return nil
}

func (s *service) updatesFor(ctx context.Context, in UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	details := map[string]string{}
	setString := func(column, field string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			details[field] = "must not be empty"
			return
		}
		updates[column] = *v
	}
	setString("name", "name", in.Name)
	setString("description", "description", in.Description)
	setString("species", "species", in.Species)
	setString("coat_color", "coatColor", in.CoatColor)
	setString("breed", "breed", in.Breed)
	setString("location", "location", in.Location)
	if in.Age != nil {
		if *in.Age < 0 {
			details["age"] = "must be at least 0"
		} else {
			updates["age"] = *in.Age
		}
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			details["quantity"] = "must be at least 0"
		} else {
			updates["quantity"] = *in.Quantity
		}
	}
	if in.Sex != nil {
		if !in.Sex.IsValid() {
			details["sex"] = "is invalid"
		} else {
			updates["sex"] = *in.Sex
		}
	}
	if in.HealthStatus != nil {
		if !in.HealthStatus.IsValid() {
			details["healthStatus"] = "is invalid"
		} else {
			updates["health_status"] = *in.HealthStatus
		}
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			details["status"] = "is invalid"
		} else {
			updates["status"] = *in.Status
		}
	}
	if in.Vaccinated != nil {
		updates["vaccinated"] = *in.Vaccinated
	}
	if in.Keywords != nil {
		updates["keywords"] = pq.StringArray(normalizeKeywords(in.Keywords))
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	if in.ImageID != nil {
		if err := s.requireMedia(ctx, *in.ImageID); err != nil {
			return nil, err
		}
		updates["image_id"] = *in.ImageID
	}
	return updates, nil
}

func validateCreate(in CreateInput) error {
	details := map[string]string{}
	for field, value := range map[string]string{
		"name":        in.Name,
		"description": in.Description,
		"species":     in.Species,
		"coatColor":   in.CoatColor,
		"breed":       in.Breed,
		"location":    in.Location,
	} {
		if strings.TrimSpace(value) == "" {
			details[field] = "is required"
		}
	}
	if in.Age < 0 {
		details["age"] = "must be at least 0"
	}
	if in.Quantity < 0 {
		details["quantity"] = "must be at least 0"
	}
	if !in.Sex.IsValid() {
		details["sex"] = "is invalid"
	}
	if !in.HealthStatus.IsValid() {
		details["healthStatus"] = "is invalid"
	}
	if in.ImageID == uuid.Nil {
		details["imageId"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
