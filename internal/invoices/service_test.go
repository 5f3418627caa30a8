package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments/paymentstest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
)

type fakeCanceller struct {
	calls []int64
}

func (f *fakeCanceller) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*payos.PaymentLinkInfo, error) {
	f.calls = append(f.calls, orderCode)
	return &payos.PaymentLinkInfo{OrderCode: orderCode, Status: payos.StatusCancelled}, nil
}

type fixture struct {
	conn      *gorm.DB
	svc       Service
	repo      *Repository
	gateway   *paymentstest.Gateway
	canceller *fakeCanceller
	buyer     *models.User
	cartItem  *models.CartItem
}

func newFixture(t *testing.T, codes ...int64) fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	conn := client.DB()
	f := fixture{
		conn:      conn,
		repo:      NewRepository(conn),
		gateway:   &paymentstest.Gateway{},
		canceller: &fakeCanceller{},
	}
	f.buyer = dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	media := dbtest.MustCreateMedia(t, conn)
	product := dbtest.MustCreateProduct(t, conn, media.ID, 10)
	f.cartItem = dbtest.MustCreateCartItem(t, conn, f.buyer.ID, product.ID, 2)

	svc, err := NewService(ServiceParams{
		Repo:        f.repo,
		Tx:          client,
		OrderCodes:  paymentstest.NewCodes(codes...),
		Links:       paymentstest.Issuer(f.gateway),
		Canceller:   f.canceller,
		FrontendURL: func(path string) string { return "https://fe.test" + path },
		Logger:      logger.Nop(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f fixture) input() CreateInput {
	return CreateInput{
		UserID:      f.buyer.ID,
		FirstName:   "Lan",
		LastName:    "Nguyen",
		PhoneNumber: "0901234567",
		Street:      "12 Le Loi",
		Ward:        "Ben Nghe",
		District:    "1",
		City:        "HCMC",
		Amount:      240000,
		ShippingFee: 30000,
		TotalAmount: 270000,
		CartItemIDs: []uuid.UUID{f.cartItem.ID},
	}
}

func TestCreateInvoicePersistsPendingWithLink(t *testing.T) {
	f := newFixture(t, 4321)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, int64(4321), res.OrderCode)
	assert.Equal(t, "https://pay.test/checkout/4321", res.CheckoutURL)

	req := f.gateway.Last()
	assert.Equal(t, int64(270000), req.Amount)
	assert.Equal(t, "Payment for order 4321", req.Description)
	assert.Equal(t, "https://fe.test/payment-successful", req.ReturnURL)
	assert.Equal(t, "https://fe.test/", req.CancelURL)

	stored, err := f.repo.FindByOrderCode(ctx, 4321)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPending, stored.Status)
	require.NotNil(t, stored.CheckoutURL)
	assert.Equal(t, res.CheckoutURL, *stored.CheckoutURL)
	require.Len(t, stored.Items, 1)
	require.NotNil(t, stored.Items[0].CartItemID)
	assert.Equal(t, f.cartItem.ID, *stored.Items[0].CartItemID)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, "120000", stored.Items[0].UnitPrice.String())
}

func TestCreateInvoiceGatewayFailureKeepsPending(t *testing.T) {
	f := newFixture(t, 77)
	f.gateway.Err = errors.New("gateway down")

	_, err := f.svc.Create(context.Background(), f.input())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, int64(77), typed.Details().(map[string]any)["order_code"])

	stored, err := f.repo.FindByOrderCode(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPending, stored.Status)
	assert.Nil(t, stored.CheckoutURL)
}

func TestCreateInvoiceRejectsForeignCartItem(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.CartItemIDs = []uuid.UUID{uuid.New()}

	_, err := f.svc.Create(context.Background(), in)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Empty(t, f.gateway.Requests)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.TotalAmount = 0
	in.City = " "

	_, err := f.svc.Create(context.Background(), in)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Contains(t, details, "totalAmount")
	assert.Contains(t, details, "city")
}

func TestCreateInvoiceRejectsMismatchedAmounts(t *testing.T) {
	f := newFixture(t, 61)
	ctx := context.Background()

	in := f.input()
	in.TotalAmount = 1000
	_, err := f.svc.Create(ctx, in)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "must equal amount plus shippingFee", typed.Details().(map[string]string)["totalAmount"])

	in = f.input()
	in.Amount = 1000
	in.TotalAmount = 31000
	_, err = f.svc.Create(ctx, in)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, int64(240000), typed.Details().(map[string]any)["cart_total"])
	assert.Empty(t, f.gateway.Requests)
}

func TestInvoiceSnapshotOutlivesCartLine(t *testing.T) {
	f := newFixture(t, 62)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	require.NoError(t, f.conn.Delete(&models.CartItem{}, "id = ?", f.cartItem.ID).Error)
	readded := dbtest.MustCreateCartItem(t, f.conn, f.buyer.ID, f.cartItem.ProductID, 7)
	require.NotEqual(t, f.cartItem.ID, readded.ID)

	view, err := f.svc.GetByOrderCode(ctx, auth.Principal{UserID: f.buyer.ID, Role: enums.UserRoleUser}, 62)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].CartItemID)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "120000", view.Items[0].Price)
	assert.Equal(t, "Salmon kibble", view.Items[0].ProductName)
}

func TestListPendingBeforeWalksPayOSRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	insert := func(code int64, provider enums.PaymentProvider, status enums.InvoiceStatus, created time.Time) {
		t.Helper()
		inv := &models.Invoice{
			ID:          uuid.New(),
			UserID:      f.buyer.ID,
			FirstName:   "Lan",
			LastName:    "Nguyen",
			PhoneNumber: "0901234567",
			Street:      "12 Le Loi",
			Ward:        "Ben Nghe",
			District:    "1",
			City:        "HCMC",
			Amount:      1000,
			TotalAmount: 1000,
			Status:      status,
			OrderCode:   code,
			Provider:    provider,
			CreatedAt:   created,
		}
		require.NoError(t, f.conn.Omit("Items", "User").Create(inv).Error)
	}
	insert(1, enums.PaymentProviderSquare, enums.InvoiceStatusPending, base)
	insert(2, enums.PaymentProviderPayOS, enums.InvoiceStatusPending, base.Add(time.Minute))
	insert(3, enums.PaymentProviderPayOS, enums.InvoiceStatusPaid, base.Add(2*time.Minute))
	insert(4, enums.PaymentProviderPayOS, enums.InvoiceStatusPending, base.Add(3*time.Minute))
	insert(5, enums.PaymentProviderPayOS, enums.InvoiceStatusPending, base.Add(48*time.Hour))

	cutoff := base.Add(24 * time.Hour)
	var seen []int64
	var after pagination.Keyset
	for range 5 {
		rows, err := f.repo.ListPendingBefore(ctx, cutoff, after, 1)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		seen = append(seen, rows[0].OrderCode)
		after = pagination.Keyset{CreatedAt: rows[0].CreatedAt, ID: rows[0].ID}
	}
	assert.Equal(t, []int64{2, 4}, seen)
}

func TestCreateInvoiceRetriesTakenOrderCode(t *testing.T) {
	f := newFixture(t, 500, 500, 501)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, int64(501), res.OrderCode)
}

func TestListInvoicesScopesByRole(t *testing.T) {
	f := newFixture(t, 1, 2)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	other := dbtest.MustCreateUser(t, f.conn, enums.UserRoleUser)
	media := dbtest.MustCreateMedia(t, f.conn)
	product := dbtest.MustCreateProduct(t, f.conn, media.ID, 3)
	item := dbtest.MustCreateCartItem(t, f.conn, other.ID, product.ID, 2)
	in := f.input()
	in.UserID = other.ID
	in.CartItemIDs = []uuid.UUID{item.ID}
	_, err = f.svc.Create(ctx, in)
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, auth.Principal{UserID: f.buyer.ID, Role: enums.UserRoleUser}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, mine.Invoices, 1)
	assert.Equal(t, f.buyer.Username, mine.Invoices[0].Username)

	sales, err := f.svc.List(ctx, auth.Principal{UserID: uuid.New(), Role: enums.UserRoleSalesAdmin}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, sales.Invoices, 2)
	assert.Equal(t, int64(2), sales.Meta.Total)
}

func TestGetInvoiceHidesOtherUsers(t *testing.T) {
	f := newFixture(t, 9)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.GetByOrderCode(ctx, auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}, 9)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	view, err := f.svc.GetByOrderCode(ctx, auth.Principal{UserID: f.buyer.ID, Role: enums.UserRoleUser}, 9)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Salmon kibble", view.Items[0].ProductName)
}

func TestCancelInvoice(t *testing.T) {
	f := newFixture(t, 31, 32)
	ctx := context.Background()
	owner := auth.Principal{UserID: f.buyer.ID, Role: enums.UserRoleUser}
	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	view, err := f.svc.Cancel(ctx, owner, 31)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusCancelled, view.Status)
	assert.Equal(t, []int64{31}, f.canceller.calls)

	again, err := f.svc.Cancel(ctx, owner, 31)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusCancelled, again.Status)
	assert.Len(t, f.canceller.calls, 1)

	_, err = f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	_, err = f.repo.MarkPaid(ctx, 32, time.Now())
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, owner, 32)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestSettlerIsConditional(t *testing.T) {
	f := newFixture(t, 808)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	settler := NewSettler(f.repo)
	first, err := settler.Settle(ctx, f.conn, 808, time.Now())
	require.NoError(t, err)
	assert.True(t, first.Found)
	assert.True(t, first.Applied)
	assert.Equal(t, f.buyer.ID, first.OwnerID)

	second, err := settler.Settle(ctx, f.conn, 808, time.Now())
	require.NoError(t, err)
	assert.True(t, second.Found)
	assert.False(t, second.Applied)
	assert.Equal(t, enums.InvoiceStatusPaid.String(), second.Status)

	missing, err := settler.Settle(ctx, f.conn, 999, time.Now())
	require.NoError(t, err)
	assert.False(t, missing.Found)
}
