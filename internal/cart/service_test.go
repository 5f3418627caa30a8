package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/products"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *gorm.DB, *models.User, *models.Product) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	require.NoError(t, err)
	img := dbtest.MustCreateMedia(t, conn)
	return svc, conn, dbtest.MustCreateUser(t, conn, enums.UserRoleUser), dbtest.MustCreateProduct(t, conn, img.ID, 5)
}

func TestAddMergesAndChecksStock(t *testing.T) {
	svc, _, user, product := setup(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	second, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	assert.True(t, second.Subtotal.Equal(decimal.NewFromInt(600000)))

	_, err = svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Add(ctx, AddInput{UserID: user.ID, ProductID: uuid.New(), Quantity: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListTotalsAndCategory(t *testing.T) {
	svc, conn, user, product := setup(t)
	ctx := context.Background()

	img := dbtest.MustCreateMedia(t, conn)
	toy := dbtest.MustCreateProduct(t, conn, img.ID, 10)
	require.NoError(t, conn.Model(toy).Updates(map[string]any{"category": "toys", "price": "25000.50"}).Error)

	_, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddInput{UserID: user.ID, ProductID: toy.ID, Quantity: 2})
	require.NoError(t, err)

	view, err := svc.List(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "290001", view.TotalCartValue.String())

	view, err = svc.List(ctx, user.ID, "toys")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "50001", view.TotalCartValue.String())
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	svc, conn, user, product := setup(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	stranger := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)

	_, err = svc.UpdateQuantity(ctx, stranger.ID, item.ID, 2)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = svc.UpdateQuantity(ctx, user.ID, item.ID, 6)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	updated, err := svc.UpdateQuantity(ctx, user.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	got, err := svc.Get(ctx, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, product.Name, got.Name)
	assert.True(t, got.Subtotal.Equal(decimal.NewFromInt(480000)))
	_, err = svc.Get(ctx, stranger.ID, item.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, stranger.ID, item.ID)))
	require.NoError(t, svc.Delete(ctx, user.ID, item.ID))

	view, err := svc.List(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalCartValue.IsZero())
}

func TestDeleteInvoicedLineKeepsInvoiceSnapshot(t *testing.T) {
	svc, conn, user, product := setup(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	invoice := &models.Invoice{
		ID:          uuid.New(),
		UserID:      user.ID,
		FirstName:   "Lan",
		LastName:    "Nguyen",
		PhoneNumber: "0901234567",
		Street:      "12 Le Loi",
		Ward:        "Ben Nghe",
		District:    "1",
		City:        "HCMC",
		Amount:      240000,
		TotalAmount: 240000,
		Status:      enums.InvoiceStatusPaid,
		OrderCode:   4401,
		Provider:    enums.PaymentProviderPayOS,
	}
	require.NoError(t, conn.Omit("Items", "User").Create(invoice).Error)
	line := models.InvoiceItem{
		ID:         uuid.New(),
		InvoiceID:  invoice.ID,
		CartItemID: &item.ID,
		ProductID:  product.ID,
		Quantity:   2,
		UnitPrice:  product.Price,
	}
	require.NoError(t, conn.Omit("Product").Create(&line).Error)

	require.NoError(t, svc.Delete(ctx, user.ID, item.ID))

	var stored models.InvoiceItem
	require.NoError(t, conn.First(&stored, "id = ?", line.ID).Error)
	assert.Nil(t, stored.CartItemID)
	assert.Equal(t, 2, stored.Quantity)

	readded, err := svc.Add(ctx, AddInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, readded.Quantity)
}
