package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/api/validators"
	"github.com/hopefultail/hopeful-tail-backend/internal/adoptions"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

type createAdoptionRequest struct {
	PetID       string `json:"petId" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=100"`
	Address     string `json:"address" validate:"required,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	CCCD        string `json:"cccd" validate:"required"`
}

type updateAdoptionStatusRequest struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required"`
}

func AdoptionCreate(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoption service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createAdoptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		petID, err := uuid.Parse(req.PetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid petId"))
			return
		}

		row, err := svc.Create(r.Context(), adoptions.CreateInput{
			UserID:      principal.UserID,
			PetID:       petID,
			Name:        validators.SanitizeString(req.Name, 100),
			Address:     validators.SanitizeString(req.Address, 255),
			PhoneNumber: strings.TrimSpace(req.PhoneNumber),
			CCCD:        strings.TrimSpace(req.CCCD),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// AdoptionList returns every request for staff and the caller's own otherwise.
func AdoptionList(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoption service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.AdoptionStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseAdoptionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}
		rows, err := svc.List(r.Context(), principal, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdoptionUpdateStatus(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoption service unavailable"))
			return
		}
		var req updateAdoptionStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}
		status, err := enums.ParseAdoptionStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		row, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdoptionCountDay runs one count-day sweep on demand.
func AdoptionCountDay(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoption service unavailable"))
			return
		}
		result, err := svc.SweepCountDay(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
