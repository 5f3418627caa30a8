package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/dbtest"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

func sequence(codes ...int64) func() int64 {
	i := 0
	return func() int64 {
		code := codes[i%len(codes)]
		i++
		return code
	}
}

func TestOrderCodesSkipsCodesUsedByEitherTable(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	require.NoError(t, conn.Create(&models.Fund{
		ID:           uuid.New(),
		UserID:       user.ID,
		Amount:       1000,
		DateReceived: time.Now(),
		Status:       enums.FundStatusPending,
		OrderCode:    11,
		Provider:     enums.PaymentProviderPayOS,
	}).Error)

	gen := NewOrderCodes(conn)
	gen.draw = sequence(11, 12)

	code, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), code)
}

func TestOrderCodesGivesUpAfterAttempts(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.MustCreateUser(t, conn, enums.UserRoleUser)
	require.NoError(t, conn.Create(&models.Fund{
		ID:           uuid.New(),
		UserID:       user.ID,
		Amount:       1000,
		DateReceived: time.Now(),
		Status:       enums.FundStatusPending,
		OrderCode:    9,
		Provider:     enums.PaymentProviderPayOS,
	}).Error)

	gen := NewOrderCodes(conn)
	gen.draw = sequence(9)

	_, err := gen.Next(context.Background())
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestOrderCodesDefaultRange(t *testing.T) {
	gen := NewOrderCodes(nil)
	for i := 0; i < 1000; i++ {
		code := gen.draw()
		if code < 1 || code > MaxOrderCode {
			t.Fatalf("code %d out of range", code)
		}
	}
}
