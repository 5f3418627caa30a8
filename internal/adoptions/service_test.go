package adoptions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/cartpets"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
	user *models.User
	pet  *models.Pet
}

func setup(t *testing.T) fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	conn := client.DB()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		CartPets: cartpets.NewRepository(conn),
		Pets:     pets.NewRepository(conn),
		Tx:       client,
	})
	require.NoError(t, err)
	img := dbtest.MustCreateMedia(t, conn)
	return fixture{
		svc:  svc,
		conn: conn,
		user: dbtest.MustCreateUser(t, conn, enums.UserRoleUser),
		pet:  dbtest.MustCreatePet(t, conn, img.ID),
	}
}

func validInput(f fixture) CreateInput {
	return CreateInput{
		UserID:      f.user.ID,
		PetID:       f.pet.ID,
		Name:        "Tran Van A",
		Address:     "12 Le Loi, District 1",
		PhoneNumber: "0901234567",
		CCCD:        "079123456789",
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestCreateTracksReservation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)
	assert.Equal(t, enums.AdoptionStatusPending, req.Status)
	assert.Zero(t, req.CountDay)

	var cp models.CartPet
	require.NoError(t, f.conn.Where("user_id = ? AND pet_id = ?", f.user.ID, f.pet.ID).First(&cp).Error)
	assert.Equal(t, enums.AdoptionStatusPending, cp.Status)

	_, err = f.svc.Create(ctx, validInput(f))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestCreateRejectsBadIdentityNumbers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := map[string]func(*CreateInput){
		"short phone":   func(in *CreateInput) { in.PhoneNumber = "090123" },
		"letters phone": func(in *CreateInput) { in.PhoneNumber = "09012345ab" },
		"short cccd":    func(in *CreateInput) { in.CCCD = "0791234" },
		"long cccd":     func(in *CreateInput) { in.CCCD = "0791234567890" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(f)
			mutate(&in)
			_, err := f.svc.Create(ctx, in)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	assert.Zero(t, countRows(t, f.conn, &models.AdoptionRequest{}))
	assert.Zero(t, countRows(t, f.conn, &models.CartPet{}))
}

func TestCreateUnknownPet(t *testing.T) {
	f := setup(t)
	in := validInput(f)
	in.PetID = uuid.New()
	_, err := f.svc.Create(context.Background(), in)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCreateConflictsWithApprovedRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, req.ID, enums.AdoptionStatusApproved)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, validInput(f))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.AdoptionRequest{}))
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)

	steps := []struct {
		status  enums.AdoptionStatus
		wantPet enums.PetStatus
	}{
		{enums.AdoptionStatusApproved, enums.PetStatusAdopted},
		{enums.AdoptionStatusRejected, enums.PetStatusAvailable},
		{enums.AdoptionStatusPending, enums.PetStatusAvailable},
		{enums.AdoptionStatusApproved, enums.PetStatusAdopted},
	}
	for _, step := range steps {
		updated, err := f.svc.UpdateStatus(ctx, req.ID, step.status)
		require.NoError(t, err)
		assert.Equal(t, step.status, updated.Status)

		var pet models.Pet
		require.NoError(t, f.conn.First(&pet, "id = ?", f.pet.ID).Error)
		assert.Equal(t, step.wantPet, pet.Status, "after %s", step.status)

		var cp models.CartPet
		require.NoError(t, f.conn.Where("user_id = ? AND pet_id = ?", f.user.ID, f.pet.ID).First(&cp).Error)
		assert.Equal(t, step.status, cp.Status)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, uuid.New(), enums.AdoptionStatusApproved)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	req, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, req.ID, enums.AdoptionStatus("archived"))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestListScopesToOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)
	other := dbtest.MustCreateUser(t, f.conn, enums.UserRoleUser)
	in := validInput(f)
	in.UserID = other.ID
	_, err = f.svc.Create(ctx, in)
	require.NoError(t, err)

	own, err := f.svc.List(ctx, auth.Principal{UserID: f.user.ID, Role: enums.UserRoleUser}, nil)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	staff := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleAdoptedAdmin}
	all, err := f.svc.List(ctx, staff, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.NotNil(t, all[0].Pet)
	assert.Equal(t, "Milo", all[0].Pet.Name)

	approved := enums.AdoptionStatusApproved
	none, err := f.svc.List(ctx, staff, &approved)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSweepCountDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	approved, err := f.svc.Create(ctx, validInput(f))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, approved.ID, enums.AdoptionStatusApproved)
	require.NoError(t, err)

	other := dbtest.MustCreateUser(t, f.conn, enums.UserRoleUser)
	in := validInput(f)
	in.UserID = other.ID
	pending, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	for day := 1; day < CountDayThreshold; day++ {
		res, err := f.svc.SweepCountDay(ctx)
		require.NoError(t, err)
		assert.Equal(t, SweepResult{Scanned: 1, Incremented: 1}, res)
	}

	var row models.AdoptionRequest
	require.NoError(t, f.conn.First(&row, "id = ?", approved.ID).Error)
	assert.Equal(t, CountDayThreshold-1, row.CountDay)

	res, err := f.svc.SweepCountDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 1, Incremented: 1, Deleted: 1}, res)

	err = f.conn.First(&row, "id = ?", approved.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, f.conn.First(&row, "id = ?", pending.ID).Error)
	assert.Zero(t, row.CountDay)

	res, err = f.svc.SweepCountDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}
