package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/api/validators"
	"github.com/hopefultail/hopeful-tail-backend/internal/products"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

type createProductRequest struct {
	Name              string           `json:"name" validate:"required,max=255"`
	Description       *string          `json:"description,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	OldPrice          *decimal.Decimal `json:"oldPrice,omitempty"`
	ImageID           string           `json:"imageId" validate:"required,uuid"`
	Category          string           `json:"category" validate:"required"`
	Quantity          int              `json:"quantity" validate:"min=0"`
	Code              string           `json:"code" validate:"required"`
	SupportPercentage int              `json:"supportPercentage,omitempty"`
	Keywords          []string         `json:"keywords,omitempty"`
}

type updateProductRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	OldPrice          *decimal.Decimal `json:"oldPrice,omitempty"`
	ImageID           *string          `json:"imageId,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Quantity          *int             `json:"quantity,omitempty"`
	Code              *string          `json:"code,omitempty"`
	SupportPercentage *int             `json:"supportPercentage,omitempty"`
	Keywords          []string         `json:"keywords,omitempty"`
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		q := r.URL.Query()
		filters := products.Filters{
			Search:   validators.SanitizeString(q.Get("search"), 100),
			Category: validators.SanitizeString(q.Get("category"), 50),
		}
		var err error
		if filters.MinPrice, err = queryDecimal(q.Get("minPrice"), "minPrice"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.MaxPrice, err = queryDecimal(q.Get("maxPrice"), "maxPrice"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), filters, pagination.FromQuery(q))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageID, err := uuid.Parse(req.ImageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid imageId"))
			return
		}

		product, err := svc.Create(r.Context(), products.CreateInput{
			Name:              validators.SanitizeString(req.Name, 255),
			Description:       validators.SanitizeOptional(req.Description, 0),
			Price:             req.Price,
			OldPrice:          req.OldPrice,
			ImageID:           imageID,
			Category:          validators.SanitizeString(req.Category, 50),
			Quantity:          req.Quantity,
			Code:              strings.TrimSpace(req.Code),
			SupportPercentage: req.SupportPercentage,
			Keywords:          req.Keywords,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageID, err := parseOptionalUUID(req.ImageID, "imageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, products.UpdateInput{
			Name:              validators.SanitizeOptional(req.Name, 255),
			Description:       validators.SanitizeOptional(req.Description, 0),
			Price:             req.Price,
			OldPrice:          req.OldPrice,
			ImageID:           imageID,
			Category:          validators.SanitizeOptional(req.Category, 50),
			Quantity:          req.Quantity,
			Code:              req.Code,
			SupportPercentage: req.SupportPercentage,
			Keywords:          req.Keywords,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
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

func queryDecimal(raw, field string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
