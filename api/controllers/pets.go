package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/api/validators"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

type createPetRequest struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Description  string   `json:"description" validate:"required"`
	Age          int      `json:"age" validate:"min=0"`
	Species      string   `json:"species" validate:"required"`
	CoatColor    string   `json:"coatColor" validate:"required"`
	Sex          string   `json:"sex" validate:"required"`
	Breed        string   `json:"breed" validate:"required"`
	Vaccinated   bool     `json:"vaccinated"`
	HealthStatus string   `json:"healthStatus" validate:"required"`
	ImageID      string   `json:"imageId" validate:"required,uuid"`
	Quantity     int      `json:"quantity" validate:"min=0"`
	Location     string   `json:"location" validate:"required"`
	Keywords     []string `json:"keywords,omitempty"`
}

func (r createPetRequest) toInput() (pets.CreateInput, error) {
	imageID, err := uuid.Parse(r.ImageID)
	if err != nil {
		return pets.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid imageId")
	}
	return pets.CreateInput{
		Name:         validators.SanitizeString(r.Name, 100),
		Description:  validators.SanitizeString(r.Description, 0),
		Age:          r.Age,
		Species:      validators.SanitizeString(r.Species, 50),
		CoatColor:    validators.SanitizeString(r.CoatColor, 50),
		Sex:          enums.PetSex(strings.TrimSpace(r.Sex)),
		Breed:        validators.SanitizeString(r.Breed, 100),
		Vaccinated:   r.Vaccinated,
		HealthStatus: enums.PetHealthStatus(strings.TrimSpace(r.HealthStatus)),
		ImageID:      imageID,
		Quantity:     r.Quantity,
		Location:     validators.SanitizeString(r.Location, 255),
		Keywords:     r.Keywords,
	}, nil
}

type updatePetRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Species      *string  `json:"species,omitempty"`
	CoatColor    *string  `json:"coatColor,omitempty"`
	Sex          *string  `json:"sex,omitempty"`
	Breed        *string  `json:"breed,omitempty"`
	Vaccinated   *bool    `json:"vaccinated,omitempty"`
	HealthStatus *string  `json:"healthStatus,omitempty"`
	ImageID      *string  `json:"imageId,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Status       *string  `json:"status,omitempty"`
}

func (r updatePetRequest) toInput() (pets.UpdateInput, error) {
	imageID, err := parseOptionalUUID(r.ImageID, "imageId")
	if err != nil {
		return pets.UpdateInput{}, err
	}
	in := pets.UpdateInput{
		Name:        validators.SanitizeOptional(r.Name, 100),
		Description: validators.SanitizeOptional(r.Description, 0),
		Age:         r.Age,
		Species:     validators.SanitizeOptional(r.Species, 50),
		CoatColor:   validators.SanitizeOptional(r.CoatColor, 50),
		Breed:       validators.SanitizeOptional(r.Breed, 100),
		Vaccinated:  r.Vaccinated,
		ImageID:     imageID,
		Quantity:    r.Quantity,
		Location:    validators.SanitizeOptional(r.Location, 255),
		Keywords:    r.Keywords,
	}
	if r.Sex != nil {
		sex := enums.PetSex(strings.TrimSpace(*r.Sex))
		in.Sex = &sex
	}
	if r.HealthStatus != nil {
		hs := enums.PetHealthStatus(strings.TrimSpace(*r.HealthStatus))
		in.HealthStatus = &hs
	}
	if r.Status != nil {
		st := enums.PetStatus(strings.TrimSpace(*r.Status))
		in.Status = &st
	}
	return in, nil
}

// PetList is the public catalog with search and filters.
func PetList(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}

		q := r.URL.Query()
		filters := pets.Filters{
			Search:    validators.SanitizeString(q.Get("search"), 100),
			Species:   validators.SanitizeString(q.Get("species"), 50),
			CoatColor: validators.SanitizeString(q.Get("coatColor"), 50),
			Sex:       validators.SanitizeString(q.Get("sex"), 20),
		}
		result, err := svc.List(r.Context(), filters, pagination.FromQuery(q))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PetGet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pet, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

func PetCreate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}
		var req createPetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pet, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pet)
	}
}

func PetUpdate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pet, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

// PetDelete soft deletes a listing.
func PetDelete(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
