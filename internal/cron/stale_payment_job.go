package cron

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
)

const (
	stalePaymentJobName = "stale-payment-links"

	defaultStaleAfter = 24 * time.Hour
	defaultStaleBatch = 100
)

type linkStatusReader interface {
	GetPaymentLink(ctx context.Context, orderCode int64) (*payos.PaymentLinkInfo, error)
}

type pendingInvoices interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, after pagination.Keyset, limit int) ([]models.Invoice, error)
	MarkCancelled(ctx context.Context, orderCode int64, at time.Time) (bool, error)
}

type pendingFunds interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, after pagination.Keyset, limit int) ([]models.Fund, error)
	MarkRejected(ctx context.Context, orderCode int64, at time.Time) (bool, error)
}

type paymentConfirmer interface {
	Handle(ctx context.Context, n payments.Notification) (payments.Result, error)
}

type StalePaymentJobParams struct {
	Invoices   pendingInvoices
	Funds      pendingFunds
	Links      linkStatusReader
	Reconciler paymentConfirmer
	Metrics    *metrics.CronJobMetrics
	Logger     *logger.Logger
	StaleAfter time.Duration
	BatchSize  int
	Now        func() time.Time
}

// StalePaymentJob polls PayOS for invoices and funds still pending after
// StaleAfter. Paid links go through the webhook reconciler so a missed
// delivery settles exactly like a real one. Cancelled or expired links
// close the record. Each run walks every stale row in BatchSize pages, so
// links PayOS still reports as pending never hide newer ones.
type StalePaymentJob struct {
	invoices   pendingInvoices
	funds      pendingFunds
	links      linkStatusReader
	reconciler paymentConfirmer
	metrics    *metrics.CronJobMetrics
	logg       *logger.Logger
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func NewStalePaymentJob(params StalePaymentJobParams) (*StalePaymentJob, error) {
	if params.Invoices == nil || params.Funds == nil {
		return nil, fmt.Errorf("invoice and fund repositories required")
	}
	if params.Links == nil {
		return nil, fmt.Errorf("payment link reader required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	job := &StalePaymentJob{
		invoices:   params.Invoices,
		funds:      params.Funds,
		links:      params.Links,
		reconciler: params.Reconciler,
		metrics:    params.Metrics,
		logg:       params.Logger,
		staleAfter: params.StaleAfter,
		batch:      params.BatchSize,
		now:        params.Now,
	}
	if job.logg == nil {
		job.logg = logger.Nop()
	}
	if job.staleAfter <= 0 {
		job.staleAfter = defaultStaleAfter
	}
	if job.batch <= 0 {
		job.batch = defaultStaleBatch
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

func (j *StalePaymentJob) Name() string { return stalePaymentJobName }

func (j *StalePaymentJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.staleAfter)

	var errs error
	err := walkPending(ctx, j.batch,
		func(after pagination.Keyset) ([]models.Invoice, error) {
			return j.invoices.ListPendingBefore(ctx, cutoff, after, j.batch)
		},
		func(inv models.Invoice) pagination.Keyset {
			errs = multierr.Append(errs, j.check(ctx, inv.OrderCode, now, j.invoices.MarkCancelled, "cancelled"))
			return pagination.Keyset{CreatedAt: inv.CreatedAt, ID: inv.ID}
		})
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("list pending invoices: %w", err))
	}

	err = walkPending(ctx, j.batch,
		func(after pagination.Keyset) ([]models.Fund, error) {
			return j.funds.ListPendingBefore(ctx, cutoff, after, j.batch)
		},
		func(fund models.Fund) pagination.Keyset {
			errs = multierr.Append(errs, j.check(ctx, fund.OrderCode, now, j.funds.MarkRejected, "rejected"))
			return pagination.Keyset{CreatedAt: fund.CreatedAt, ID: fund.ID}
		})
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("list pending funds: %w", err))
	}
	return errs
}

// walkPending pages through list until a short page, handing every row to
// visit and resuming after the position visit returns.
func walkPending[T any](
	ctx context.Context,
	batch int,
	list func(after pagination.Keyset) ([]T, error),
	visit func(row T) pagination.Keyset,
) error {
	var after pagination.Keyset
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := list(after)
		if err != nil {
			return err
		}
		for _, row := range rows {
			after = visit(row)
		}
		if len(rows) < batch {
			return nil
		}
	}
}

func (j *StalePaymentJob) check(
	ctx context.Context,
	orderCode int64,
	now time.Time,
	closeFn func(context.Context, int64, time.Time) (bool, error),
	closedAction string,
) error {
	ctx = j.logg.WithOrderCode(ctx, orderCode)
	info, err := j.links.GetPaymentLink(ctx, orderCode)
	if err != nil {
		j.logg.Warn(ctx, "cron.stale_payment.lookup_failed")
		return fmt.Errorf("lookup %d: %w", orderCode, err)
	}

	switch info.Status {
	case payos.StatusPaid:
		res, err := j.reconciler.Handle(ctx, payments.Notification{
			Provider:  enums.PaymentProviderPayOS,
			OrderCode: orderCode,
			Code:      payments.SuccessCode,
			Reference: "poll:" + info.ID,
			Amount:    info.AmountPaid,
			Payload:   []byte(`{"source":"poll","orderCode":` + strconv.FormatInt(orderCode, 10) + `}`),
		})
		if err != nil {
			return fmt.Errorf("settle %d: %w", orderCode, err)
		}
		if res.Applied {
			j.metrics.AddAffected(stalePaymentJobName, "settled", 1)
		}
	case payos.StatusCancelled, payos.StatusExpired:
		changed, err := closeFn(ctx, orderCode, now)
		if err != nil {
			return fmt.Errorf("close %d: %w", orderCode, err)
		}
		if changed {
			j.metrics.AddAffected(stalePaymentJobName, closedAction, 1)
			j.logg.Info(j.logg.WithField(ctx, "link_status", info.Status), "cron.stale_payment.closed")
		}
	}
	return nil
}
