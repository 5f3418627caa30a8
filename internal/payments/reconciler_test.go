package payments

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

type fakeSettler struct {
	target  string
	pending map[int64]bool
	owner   uuid.UUID
	amount  int64
	calls   int
}

func (f *fakeSettler) Target() string { return f.target }

func (f *fakeSettler) Settle(ctx context.Context, tx *gorm.DB, orderCode int64, at time.Time) (SettleResult, error) {
	f.calls++
	pending, ok := f.pending[orderCode]
	if !ok {
		return SettleResult{}, nil
	}
	if pending {
		f.pending[orderCode] = false
		return SettleResult{Found: true, Applied: true, Status: "paid", OwnerID: f.owner, Amount: f.amount}, nil
	}
	return SettleResult{Found: true, Status: "paid", OwnerID: f.owner, Amount: f.amount}, nil
}

type memoryGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (g *memoryGuard) CheckAndMark(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys[key] {
		return true, nil
	}
	g.keys[key] = true
	return false, nil
}

func (g *memoryGuard) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

type recordingPublisher struct {
	events []ConfirmedEvent
}

func (p *recordingPublisher) PublishConfirmed(ctx context.Context, event ConfirmedEvent) error {
	p.events = append(p.events, event)
	return nil
}

type reconcilerFixture struct {
	reconciler *Reconciler
	invoices   *fakeSettler
	funds      *fakeSettler
	guard      *memoryGuard
	publisher  *recordingPublisher
	events     *EventRepository
}

func newReconcilerFixture(t *testing.T) reconcilerFixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	f := reconcilerFixture{
		invoices:  &fakeSettler{target: KindInvoice, pending: map[int64]bool{1001: true}, owner: uuid.New()},
		funds:     &fakeSettler{target: KindFund, pending: map[int64]bool{2002: true, 1001: true}, owner: uuid.New()},
		guard:     &memoryGuard{keys: map[string]bool{}},
		publisher: &recordingPublisher{},
		events:    NewEventRepository(client.DB()),
	}
	r, err := NewReconciler(ReconcilerParams{
		DB:        client,
		Events:    f.events,
		Settlers:  []Settler{f.invoices, f.funds},
		Guard:     f.guard,
		Publisher: f.publisher,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	f.reconciler = r
	return f
}

func notification(orderCode int64, code string) Notification {
	return Notification{
		Provider:  enums.PaymentProviderPayOS,
		OrderCode: orderCode,
		Code:      code,
		Reference: "FT123",
		Payload:   []byte(`{"orderCode":1}`),
	}
}

func TestReconcilerInvoiceTakesPrecedence(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	res, err := f.reconciler.Handle(ctx, notification(1001, SuccessCode))
	require.NoError(t, err)
	assert.Equal(t, KindInvoice, res.Target)
	assert.True(t, res.Applied)
	assert.Equal(t, enums.PaymentEventOutcomeApplied, res.Outcome)
	assert.True(t, f.funds.pending[1001], "fund with same code must stay untouched")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, f.invoices.owner, f.publisher.events[0].OwnerID)

	rows, err := f.events.ListByOrderCode(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.PaymentEventOutcomeApplied, rows[0].Outcome)
}

func TestReconcilerFallsBackToFund(t *testing.T) {
	f := newReconcilerFixture(t)

	res, err := f.reconciler.Handle(context.Background(), notification(2002, SuccessCode))
	require.NoError(t, err)
	assert.Equal(t, KindFund, res.Target)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, f.invoices.calls)
}

func TestReconcilerReplayIsShortCircuited(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.Handle(ctx, notification(1001, SuccessCode))
	require.NoError(t, err)

	res, err := f.reconciler.Handle(ctx, notification(1001, SuccessCode))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentEventOutcomeReplayed, res.Outcome)
	assert.False(t, res.Applied)
	assert.Equal(t, 1, f.invoices.calls)
	assert.Len(t, f.publisher.events, 1)
}

func TestReconcilerRedeliveryWithoutGuardIsNoop(t *testing.T) {
	f := newReconcilerFixture(t)
	f.reconciler.guard = nil
	ctx := context.Background()

	_, err := f.reconciler.Handle(ctx, notification(1001, SuccessCode))
	require.NoError(t, err)
	res, err := f.reconciler.Handle(ctx, notification(1001, SuccessCode))
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, enums.PaymentEventOutcomeReplayed, res.Outcome)
	assert.Len(t, f.publisher.events, 1)

	rows, err := f.events.ListByOrderCode(ctx, 1001)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReconcilerRejectsUnsuccessfulCode(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.Handle(ctx, notification(1001, "01"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, f.invoices.calls)
	assert.True(t, f.invoices.pending[1001])

	rows, err := f.events.ListByOrderCode(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.PaymentEventOutcomeIgnored, rows[0].Outcome)
}

func TestReconcilerUnknownOrderCode(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.Handle(ctx, notification(4242, SuccessCode))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Empty(t, f.guard.keys, "guard key should be released so the gateway can retry")

	var row models.PaymentEvent
	require.NoError(t, f.events.db.Where("order_code = ?", 4242).First(&row).Error)
	assert.Equal(t, enums.PaymentEventOutcomeUnmatched, row.Outcome)
}

func TestNewReconcilerRequiresSettlers(t *testing.T) {
	client := dbtest.OpenClient(t)
	_, err := NewReconciler(ReconcilerParams{DB: client, Events: NewEventRepository(client.DB())})
	require.Error(t, err)
}

func TestReconcilerWarnsOnAmountMismatch(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf, Format: logger.FormatJSON})
	client := dbtest.OpenClient(t)
	invoices := &fakeSettler{target: KindInvoice, pending: map[int64]bool{3003: true, 3004: true}, owner: uuid.New(), amount: 270000}
	r, err := NewReconciler(ReconcilerParams{
		DB:       client,
		Events:   NewEventRepository(client.DB()),
		Settlers: []Settler{invoices},
		Logger:   logg,
	})
	require.NoError(t, err)
	ctx := context.Background()

	n := notification(3003, SuccessCode)
	n.Amount = 270000
	_, err = r.Handle(ctx, n)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "payments.webhook_amount_mismatch")

	n = notification(3004, SuccessCode)
	n.Amount = 1000
	res, err := r.Handle(ctx, n)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Contains(t, buf.String(), "payments.webhook_amount_mismatch")
	assert.Contains(t, buf.String(), `"expected_amount":270000`)
	assert.Contains(t, buf.String(), `"received_amount":1000`)
}
