package controllers

import (
	"net/http"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/api/validators"
	"github.com/hopefultail/hopeful-tail-backend/internal/funds"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

type createFundRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

func FundCreate(svc funds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fund service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createFundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), funds.CreateInput{UserID: principal.UserID, Amount: req.Amount})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// FundList returns every donation for admins and the caller's own otherwise.
func FundList(svc funds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fund service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
