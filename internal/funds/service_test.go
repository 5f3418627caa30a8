package funds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/internal/payments/paymentstest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

func newService(t *testing.T, gw *paymentstest.Gateway, codes ...int64) (Service, *Repository, *db.Client) {
	t.Helper()
	client := dbtest.OpenClient(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Tx:          client,
		OrderCodes:  paymentstest.NewCodes(codes...),
		Links:       paymentstest.Issuer(gw),
		FrontendURL: func(path string) string { return "https://fe.test" + path },
		Logger:      logger.Nop(),
	})
	require.NoError(t, err)
	return svc, repo, client
}

func TestCreateFund(t *testing.T) {
	gw := &paymentstest.Gateway{}
	svc, repo, client := newService(t, gw, 2024)
	user := dbtest.MustCreateUser(t, client.DB(), enums.UserRoleUser)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{UserID: user.ID, Amount: 50000})
	require.NoError(t, err)
	assert.Equal(t, int64(2024), res.OrderCode)
	assert.Equal(t, "https://fe.test/donation-successful", gw.Last().ReturnURL)

	stored, err := repo.FindByOrderCode(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, enums.FundStatusPending, stored.Status)
	assert.WithinDuration(t, time.Now(), stored.DateReceived, time.Minute)
	require.NotNil(t, stored.CheckoutURL)
}

func TestCreateFundValidationAndGatewayFailure(t *testing.T) {
	gw := &paymentstest.Gateway{Err: errors.New("timeout")}
	svc, repo, client := newService(t, gw, 13)
	user := dbtest.MustCreateUser(t, client.DB(), enums.UserRoleUser)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{UserID: user.ID, Amount: 0})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Empty(t, gw.Requests)

	_, err = svc.Create(ctx, CreateInput{UserID: user.ID, Amount: 1000})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	stored, err := repo.FindByOrderCode(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, enums.FundStatusPending, stored.Status)
}

func TestListFundsTotalsAndMessage(t *testing.T) {
	svc, _, client := newService(t, &paymentstest.Gateway{})
	conn := client.DB()
	alice := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	bob := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	ctx := context.Background()

	for _, in := range []CreateInput{{alice.ID, 1000}, {alice.ID, 2500}, {bob.ID, 700}} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	own, err := svc.List(ctx, auth.Principal{UserID: alice.ID, Role: enums.UserRoleUser})
	require.NoError(t, err)
	assert.Len(t, own.Funds, 2)
	assert.Equal(t, "3500", own.TotalAmount.String())
	assert.Equal(t, messageOwnFunds, own.Message)

	all, err := svc.List(ctx, auth.Principal{UserID: uuid.New(), Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all.Funds, 3)
	assert.Equal(t, "4200", all.TotalAmount.String())
	assert.Equal(t, messageAllFunds, all.Message)
	assert.NotEmpty(t, all.Funds[0].Username)
}

func TestFundWebhookApprovesOnce(t *testing.T) {
	svc, repo, client := newService(t, &paymentstest.Gateway{}, 3131)
	user := dbtest.MustCreateUser(t, client.DB(), enums.UserRoleUser)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{UserID: user.ID, Amount: 90000})
	require.NoError(t, err)

	reconciler, err := payments.NewReconciler(payments.ReconcilerParams{
		DB:       client,
		Events:   payments.NewEventRepository(client.DB()),
		Settlers: []payments.Settler{NewSettler(repo)},
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)

	n := payments.Notification{Provider: enums.PaymentProviderPayOS, OrderCode: 3131, Code: payments.SuccessCode}
	res, err := reconciler.Handle(ctx, n)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, payments.KindFund, res.Target)

	again, err := reconciler.Handle(ctx, n)
	require.NoError(t, err)
	assert.False(t, again.Applied)

	stored, err := repo.FindByOrderCode(ctx, 3131)
	require.NoError(t, err)
	assert.Equal(t, enums.FundStatusApproved, stored.Status)
	assert.NotNil(t, stored.ApprovedAt)
}
