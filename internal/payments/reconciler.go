package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
)

// SuccessCode is the gateway data code that marks a completed payment.
const SuccessCode = "00"

// SettleResult describes what a Settler found for an order code. Amount is
// what the record expects to be paid.
type SettleResult struct {
	Found   bool
	Applied bool
	Status  string
	OwnerID uuid.UUID
	Amount  int64
}

// Settler moves one kind of payable record from pending to its paid state.
// Settle must be a conditional update so redeliveries cannot double-apply.
type Settler interface {
	Target() string
	Settle(ctx context.Context, tx *gorm.DB, orderCode int64, at time.Time) (SettleResult, error)
}

// Guard short-circuits exact webhook replays before the database is touched.
type Guard interface {
	CheckAndMark(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notification is a provider-neutral payment callback.
type Notification struct {
	Provider  enums.PaymentProvider
	OrderCode int64
	Code      string
	Reference string
	Amount    int64
	Payload   json.RawMessage
}

func (n Notification) guardKey() string {
	return n.Provider.String() + ":" + strconv.FormatInt(n.OrderCode, 10) + ":" + n.Code
}

// Result is returned for every accepted notification.
type Result struct {
	Outcome   enums.PaymentEventOutcome `json:"outcome"`
	Target    string                    `json:"target,omitempty"`
	OrderCode int64                     `json:"orderCode"`
	Applied   bool                      `json:"applied"`
	Status    string                    `json:"status,omitempty"`
}

type ReconcilerParams struct {
	DB        txRunner
	Events    *EventRepository
	Settlers  []Settler
	Guard     Guard
	Publisher EventPublisher
	Metrics   *metrics.PaymentMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

// Reconciler applies gateway callbacks to invoices and funds, trying each
// Settler in order until one owns the order code.
type Reconciler struct {
	db        txRunner
	events    *EventRepository
	settlers  []Settler
	guard     Guard
	publisher EventPublisher
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if len(params.Settlers) == 0 {
		return nil, fmt.Errorf("at least one settler is required")
	}
	r := &Reconciler{
		db:        params.DB,
		events:    params.Events,
		settlers:  params.Settlers,
		guard:     params.Guard,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Now,
	}
	if r.publisher == nil {
		r.publisher = nopPublisher{}
	}
	if r.logg == nil {
		r.logg = logger.Nop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Handle reconciles n. A non-success code yields a Validation error and an
// unknown order code yields NotFound; both still leave an audit row.
func (r *Reconciler) Handle(ctx context.Context, n Notification) (Result, error) {
	ctx = r.logg.WithOrderCode(ctx, n.OrderCode)
	ctx = r.logg.WithField(ctx, "provider", n.Provider.String())
	result := Result{OrderCode: n.OrderCode}

	if n.Code != SuccessCode {
		result.Outcome = enums.PaymentEventOutcomeIgnored
		r.record(ctx, n, result)
		r.metrics.IncWebhook(n.Provider.String(), result.Outcome.String())
		r.logg.Warn(ctx, "payments.webhook_not_applicable")
		return result, pkgerrors.New(pkgerrors.CodeValidation, "payment was not successful").
			WithDetails(map[string]any{"code": n.Code})
	}

	key := n.guardKey()
	if r.guard != nil {
		replay, err := r.guard.CheckAndMark(ctx, key)
		if err != nil {
			// redis outage falls through to the conditional update
			r.logg.Error(ctx, "payments.webhook_guard_failed", err)
		} else if replay {
			result.Outcome = enums.PaymentEventOutcomeReplayed
			r.metrics.IncWebhook(n.Provider.String(), result.Outcome.String())
			r.logg.Info(ctx, "payments.webhook_replayed")
			return result, nil
		}
	}

	var (
		owner    uuid.UUID
		expected int64
	)
	at := r.now().UTC()
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, settler := range r.settlers {
			res, err := settler.Settle(ctx, tx, n.OrderCode, at)
			if err != nil {
				return fmt.Errorf("settle %s: %w", settler.Target(), err)
			}
			if !res.Found {
				continue
			}
			owner = res.OwnerID
			expected = res.Amount
			result.Target = settler.Target()
			result.Applied = res.Applied
			result.Status = res.Status
			result.Outcome = enums.PaymentEventOutcomeApplied
			if !res.Applied {
				result.Outcome = enums.PaymentEventOutcomeReplayed
			}
			return r.events.WithTx(tx).Create(ctx, eventRow(n, result))
		}
		return nil
	})
	if err != nil {
		r.releaseGuard(ctx, key)
		return Result{OrderCode: n.OrderCode}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile payment")
	}

	if result.Target == "" {
		result.Outcome = enums.PaymentEventOutcomeUnmatched
		r.record(ctx, n, result)
		r.releaseGuard(ctx, key)
		r.metrics.IncWebhook(n.Provider.String(), result.Outcome.String())
		r.logg.Warn(ctx, "payments.webhook_unmatched")
		return result, pkgerrors.New(pkgerrors.CodeNotFound, "no invoice or fund matches order code").
			WithDetails(map[string]any{"order_code": n.OrderCode})
	}

	r.metrics.IncWebhook(n.Provider.String(), result.Outcome.String())
	if n.Amount > 0 && expected > 0 && n.Amount != expected {
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
			"target":          result.Target,
			"expected_amount": expected,
			"received_amount": n.Amount,
		}), "payments.webhook_amount_mismatch")
	}
	if !result.Applied {
		r.logg.Info(r.logg.WithField(ctx, "status", result.Status), "payments.webhook_noop")
		return result, nil
	}

	r.logg.Info(r.logg.WithField(ctx, "target", result.Target), "payments.webhook_applied")
	event := ConfirmedEvent{
		Provider:  n.Provider,
		Target:    result.Target,
		OrderCode: n.OrderCode,
		OwnerID:   owner,
		Status:    result.Status,
		PaidAt:    at,
	}
	if err := r.publisher.PublishConfirmed(ctx, event); err != nil {
		r.logg.Error(ctx, "payments.publish_confirmed_failed", err)
	}
	return result, nil
}

func (r *Reconciler) record(ctx context.Context, n Notification, result Result) {
	if err := r.events.Create(ctx, eventRow(n, result)); err != nil {
		r.logg.Error(ctx, "payments.record_event_failed", err)
	}
}

func (r *Reconciler) releaseGuard(ctx context.Context, key string) {
	if r.guard == nil {
		return
	}
	if err := r.guard.Delete(ctx, key); err != nil {
		r.logg.Error(ctx, "payments.webhook_guard_release_failed", err)
	}
}

func eventRow(n Notification, result Result) *models.PaymentEvent {
	orderCode := n.OrderCode
	row := &models.PaymentEvent{
		Provider:  n.Provider,
		OrderCode: &orderCode,
		Code:      n.Code,
		Outcome:   result.Outcome,
		Payload:   n.Payload,
	}
	if n.Reference != "" {
		ref := n.Reference
		row.Reference = &ref
	}
	if result.Target != "" {
		target := result.Target
		row.Target = &target
	}
	return row
}
