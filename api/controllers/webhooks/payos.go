package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
)

const maxWebhookBody = 1 << 20

// PaymentReconciler applies a provider-neutral payment notification.
type PaymentReconciler interface {
	Handle(ctx context.Context, n payments.Notification) (payments.Result, error)
}

type payosWebhookBody struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

type payosWebhookData struct {
	Code      string `json:"code"`
	Desc      string `json:"desc"`
	OrderCode int64  `json:"orderCode"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// PayOSReceiveHook settles the invoice or fund named by a PayOS callback.
// Signatures are checked only when checksumKey is set.
func PayOSReceiveHook(reconciler PaymentReconciler, checksumKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reconciler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment reconciler unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		var body payosWebhookBody
		if err := json.Unmarshal(payload, &body); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook"))
			return
		}
		if len(body.Data) == 0 || string(body.Data) == "null" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook data missing"))
			return
		}

		if checksumKey != "" {
			if err := payos.VerifyWebhookData(checksumKey, body.Data, body.Signature); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature"))
				return
			}
		}

		var data payosWebhookData
		if err := json.Unmarshal(body.Data, &data); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook data"))
			return
		}

		result, err := reconciler.Handle(ctx, payments.Notification{
			Provider:  enums.PaymentProviderPayOS,
			OrderCode: data.OrderCode,
			Code:      data.Code,
			Reference: data.Reference,
			Amount:    data.Amount,
			Payload:   json.RawMessage(payload),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
