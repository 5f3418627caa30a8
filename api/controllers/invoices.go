package controllers

import (
	"net/http"
	"strings"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/api/validators"
	"github.com/hopefultail/hopeful-tail-backend/internal/invoices"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

type createInvoiceRequest struct {
	FirstName   string   `json:"firstName" validate:"required,max=100"`
	LastName    string   `json:"lastName" validate:"required,max=100"`
	PhoneNumber string   `json:"phoneNumber" validate:"required,numeric,len=10"`
	Street      string   `json:"street" validate:"required,max=255"`
	Ward        string   `json:"ward" validate:"required,max=100"`
	District    string   `json:"district" validate:"required,max=100"`
	City        string   `json:"city" validate:"required,max=100"`
	Amount      int64    `json:"amount" validate:"min=0"`
	ShippingFee int64    `json:"shippingFee" validate:"min=0"`
	TotalAmount int64    `json:"totalAmount" validate:"required,min=1"`
	CartItemIDs []string `json:"cartItemIds,omitempty"`
	CartItemID  string   `json:"cartItemId,omitempty"`
}

func (r createInvoiceRequest) itemIDs() []string {
	ids := append([]string{}, r.CartItemIDs...)
	if legacy := strings.TrimSpace(r.CartItemID); legacy != "" {
		ids = append(ids, legacy)
	}
	return ids
}

// InvoiceCreate persists a pending invoice and returns its hosted checkout link.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemIDs, err := parseUUIDList(req.itemIDs())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), invoices.CreateInput{
			UserID:      principal.UserID,
			FirstName:   validators.SanitizeString(req.FirstName, 100),
			LastName:    validators.SanitizeString(req.LastName, 100),
			PhoneNumber: req.PhoneNumber,
			Street:      validators.SanitizeString(req.Street, 255),
			Ward:        validators.SanitizeString(req.Ward, 100),
			District:    validators.SanitizeString(req.District, 100),
			City:        validators.SanitizeString(req.City, 100),
			Amount:      req.Amount,
			ShippingFee: req.ShippingFee,
			TotalAmount: req.TotalAmount,
			CartItemIDs: itemIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), principal, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := orderCodeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetByOrderCode(r.Context(), principal, code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InvoiceCancel voids a pending invoice and its gateway link.
func InvoiceCancel(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := orderCodeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Cancel(r.Context(), principal, code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
