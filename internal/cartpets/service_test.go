package cartpets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *gorm.DB, *models.User, *models.Pet) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), pets.NewRepository(conn))
	require.NoError(t, err)
	user := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	img := dbtest.MustCreateMedia(t, conn)
	pet := dbtest.MustCreatePet(t, conn, img.ID)
	require.NoError(t, conn.Model(pet).Update("quantity", 3).Error)
	return svc, conn, user, pet
}

func TestAddMergesQuantity(t *testing.T) {
	svc, _, user, pet := setup(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, AddInput{UserID: user.ID, PetID: pet.ID, Quantity: 1})
	require.NoError(t, err)
	second, err := svc.Add(ctx, AddInput{UserID: user.ID, PetID: pet.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)
	assert.Equal(t, enums.AdoptionStatusPending, second.Status)

	rows, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAddValidatesPetAndQuantity(t *testing.T) {
	svc, _, user, pet := setup(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{UserID: user.ID, PetID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Add(ctx, AddInput{UserID: user.ID, PetID: pet.ID, Quantity: 4})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGetDeleteAndStatus(t *testing.T) {
	svc, _, user, pet := setup(t)
	ctx := context.Background()
	row, err := svc.Add(ctx, AddInput{UserID: user.ID, PetID: pet.ID})
	require.NoError(t, err)

	stranger := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}
	_, err = svc.Get(ctx, stranger, row.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	updated, err := svc.UpdateStatus(ctx, row.ID, enums.AdoptionStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, enums.AdoptionStatusApproved, updated.Status)

	_, err = svc.UpdateStatus(ctx, row.ID, "maybe")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	owner := auth.Principal{UserID: user.ID, Role: enums.UserRoleUser}
	require.NoError(t, svc.Delete(ctx, owner, row.ID))
	_, err = svc.Get(ctx, owner, row.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
