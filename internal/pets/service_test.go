package pets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/media"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), media.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func validInput(imageID uuid.UUID) CreateInput {
	return CreateInput{
		Name:         "Bông",
		Description:  "Calm shiba who loves walks",
		Age:          3,
		Species:      "Dog",
		CoatColor:    "Cream",
		Sex:          enums.PetSexFemale,
		Breed:        "Shiba",
		Vaccinated:   true,
		HealthStatus: enums.PetHealthStatusHealthy,
		ImageID:      imageID,
		Location:     "Hanoi",
		Keywords:     []string{" Dog", "shiba", "dog"},
	}
}

func TestCreatePetResolvesImage(t *testing.T) {
	svc, conn := newTestService(t)
	img := dbtest.MustCreateMedia(t, conn)

	pet, err := svc.Create(context.Background(), validInput(img.ID))
	require.NoError(t, err)
	assert.Equal(t, enums.PetStatusAvailable, pet.Status)
	assert.Equal(t, 1, pet.Quantity)
	assert.Equal(t, []string{"dog", "shiba"}, pet.Keywords)
	require.NotNil(t, pet.Image.URL)
	assert.Equal(t, img.URL, *pet.Image.URL)
}

func TestCreatePetRequiresMedia(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), validInput(uuid.New()))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	in := validInput(uuid.New())
	in.Sex = "Unknown"
	_, err = svc.Create(context.Background(), in)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateAndSoftDelete(t *testing.T) {
	svc, conn := newTestService(t)
	img := dbtest.MustCreateMedia(t, conn)
	ctx := context.Background()
	pet, err := svc.Create(ctx, validInput(img.ID))
	require.NoError(t, err)

	name := "Mochi"
	age := 4
	updated, err := svc.Update(ctx, pet.ID, UpdateInput{Name: &name, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Mochi", updated.Name)
	assert.Equal(t, 4, updated.Age)
	assert.Equal(t, "Shiba", updated.Breed)

	require.NoError(t, svc.Delete(ctx, pet.ID))
	_, err = svc.Get(ctx, pet.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, pet.ID)))

	list, err := svc.List(ctx, Filters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, list.Pets)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	img := dbtest.MustCreateMedia(t, conn)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		in := validInput(img.ID)
		if i%2 == 0 {
			in.Species = "Cat"
			in.Name = "Tiger"
		}
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	cats, err := svc.List(ctx, Filters{Species: "Cat"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, cats.Pets, 2)

	search, err := svc.List(ctx, Filters{Search: "tig"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, search.Pets, 2)

	page, err := svc.List(ctx, Filters{}, pagination.Params{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Pets, 1)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.Equal(t, int64(4), page.Meta.Total)
}
