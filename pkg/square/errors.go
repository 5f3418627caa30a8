package square

import (
	"encoding/json"
	"errors"
	"net/http"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

// mapSquareError turns an SDK failure into a typed error. Caller mistakes
// keep their meaning; everything else is a dependency failure.
func (c *Client) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	code := pkgerrors.CodeDependency
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code = codeForStatus(apiErr.StatusCode)
		if override, ok := codeForDetails(squareErrors(apiErr)); ok {
			code = override
		}
	}
	return pkgerrors.Wrap(code, err, "square "+op+" failed")
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	}
	return pkgerrors.CodeDependency
}

func codeForDetails(details []*sq.Error) (pkgerrors.Code, bool) {
	for _, d := range details {
		switch {
		case d == nil:
		case d.Code == sq.ErrorCodeIdempotencyKeyReused:
			return pkgerrors.CodeIdempotency, true
		case d.Category == sq.ErrorCategoryAuthenticationError:
			return pkgerrors.CodeDependency, true
		}
	}
	return "", false
}

// squareErrors decodes the {"errors": [...]} body the SDK wraps.
func squareErrors(apiErr *sqcore.APIError) []*sq.Error {
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	var body struct {
		Errors []*sq.Error `json:"errors"`
	}
	if json.Unmarshal([]byte(inner.Error()), &body) != nil {
		return nil
	}
	return body.Errors
}
