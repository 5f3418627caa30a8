package payments

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

const (
	// MaxOrderCode bounds generated codes to seven digits.
	MaxOrderCode          int64 = 9_999_999
	defaultOrderCodeTries       = 5
)

// OrderCodes draws order codes that are unused across invoices and funds.
// The unique indexes on both tables remain the final arbiter.
type OrderCodes struct {
	db       *gorm.DB
	draw     func() int64
	attempts int
}

func NewOrderCodes(db *gorm.DB) *OrderCodes {
	return &OrderCodes{
		db:       db,
		draw:     func() int64 { return rand.Int64N(MaxOrderCode) + 1 },
		attempts: defaultOrderCodeTries,
	}
}

// Next returns a free code or a Conflict error once attempts run out.
func (o *OrderCodes) Next(ctx context.Context) (int64, error) {
	for i := 0; i < o.attempts; i++ {
		code := o.draw()
		taken, err := o.taken(ctx, code)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order code")
		}
		if !taken {
			return code, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("no free order code after %d attempts", o.attempts))
}

func (o *OrderCodes) taken(ctx context.Context, code int64) (bool, error) {
	var count int64
	err := o.db.WithContext(ctx).Raw(
		`SELECT (SELECT COUNT(*) FROM invoices WHERE order_code = ?) + (SELECT COUNT(*) FROM funds WHERE order_code = ?)`,
		code, code,
	).Scan(&count).Error
	return count > 0, err
}
