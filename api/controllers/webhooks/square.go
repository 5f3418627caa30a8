package webhooks

import (
	"io"
	"net/http"

	"github.com/hopefultail/hopeful-tail-backend/api/responses"
	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/square"
)

type squareVerifier interface {
	VerifyWebhook(body []byte, signature string) error
}

// SquareWebhook settles completed Square payments through the shared reconciler.
// Other event types are acknowledged without side effects.
func SquareWebhook(reconciler PaymentReconciler, verifier squareVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if reconciler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment reconciler unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "square client unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(square.SignatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "square signature missing"))
			return
		}
		if err := verifier.VerifyWebhook(payload, sigHeader); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid square signature"))
			return
		}

		event, err := square.ParsePaymentEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"event_id": event.EventID, "event_type": event.Type})
		}
		if !event.Completed() {
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		orderCode, ok := event.OrderCode()
		if !ok {
			if logg != nil {
				logg.Warn(ctx, "webhooks.square.order_code_missing")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order code missing from payment"))
			return
		}

		result, err := reconciler.Handle(ctx, payments.Notification{
			Provider:  enums.PaymentProviderSquare,
			OrderCode: orderCode,
			Code:      payments.SuccessCode,
			Reference: event.PaymentID,
			Amount:    event.Amount,
			Payload:   event.Raw,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
