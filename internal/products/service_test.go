package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/media"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

func setup(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), media.NewRepository(conn))
	require.NoError(t, err)
	img := dbtest.MustCreateMedia(t, conn)
	return svc, conn, img.ID
}

func input(imageID uuid.UUID, name string, price int64) CreateInput {
	return CreateInput{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		ImageID:  imageID,
		Category: "food",
		Quantity: 10,
		Code:     "SKU-" + name,
	}
}

func TestCreateDefaultsAndResolvesImage(t *testing.T) {
	svc, _, imageID := setup(t)

	in := input(imageID, "Tuna", 50000)
	in.Keywords = []string{" Fish ", "fish", "Cat"}
	view, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, MinSupportPercentage, view.SupportPercentage)
	assert.True(t, view.Price.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, []string{"fish", "cat"}, view.Keywords)
	require.NotNil(t, view.Image.URL)
	assert.Contains(t, *view.Image.URL, imageID.String())
}

func TestCreateValidation(t *testing.T) {
	svc, _, imageID := setup(t)
	ctx := context.Background()

	in := input(imageID, "Tuna", 50000)
	in.SupportPercentage = 11
	_, err := svc.Create(ctx, in)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	in = input(imageID, "Tuna", 0)
	_, err = svc.Create(ctx, in)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	in = input(uuid.New(), "Tuna", 50000)
	_, err = svc.Create(ctx, in)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, imageID := setup(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, input(imageID, "Tuna", 50000))
	require.NoError(t, err)

	support := 8
	price := decimal.RequireFromString("45000.50")
	updated, err := svc.Update(ctx, view.ID, UpdateInput{SupportPercentage: &support, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.SupportPercentage)
	assert.True(t, updated.Price.Equal(price))

	bad := 4
	_, err = svc.Update(ctx, view.ID, UpdateInput{SupportPercentage: &bad})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, view.ID))
	_, err = svc.Get(ctx, view.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, view.ID)))
}

func TestListFilters(t *testing.T) {
	svc, _, imageID := setup(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		input(imageID, "Tuna", 50000),
		input(imageID, "Salmon", 150000),
		input(imageID, "Chicken", 90000),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}
	toy := input(imageID, "Mouse toy", 20000)
	toy.Category = "toys"
	_, err := svc.Create(ctx, toy)
	require.NoError(t, err)

	min := decimal.NewFromInt(60000)
	max := decimal.NewFromInt(160000)
	res, err := svc.List(ctx, Filters{Category: "food", MinPrice: &min, MaxPrice: &max}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
	assert.EqualValues(t, 2, res.Meta.Total)

	res, err = svc.List(ctx, Filters{Search: "TOY"}, pagination.Params{Page: 1, Limit: 15})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Mouse toy", res.Products[0].Name)

	res, err = svc.List(ctx, Filters{}, pagination.Params{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, res.Products, 1)
	assert.Equal(t, 2, res.Meta.TotalPages)

	_, err = svc.List(ctx, Filters{MinPrice: &max, MaxPrice: &min}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
