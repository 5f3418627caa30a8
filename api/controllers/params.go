package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/api/middleware"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

func requirePrincipal(r *http.Request) (auth.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return principal, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func orderCodeParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderCode"))
	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || code <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid order code").WithDetails(map[string]any{"orderCode": raw})
	}
	return code, nil
}

func parseUUIDList(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"value": raw})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}
