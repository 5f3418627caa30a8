package funds

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
)

// Settler lets the payment reconciler approve donations.
type Settler struct {
	repo *Repository
}

func NewSettler(repo *Repository) *Settler {
	return &Settler{repo: repo}
}

func (s *Settler) Target() string { return payments.KindFund }

func (s *Settler) Settle(ctx context.Context, tx *gorm.DB, orderCode int64, at time.Time) (payments.SettleResult, error) {
	repo := s.repo.WithTx(tx)
	applied, err := repo.MarkApproved(ctx, orderCode, at)
	if err != nil {
		return payments.SettleResult{}, err
	}
	current, err := repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payments.SettleResult{}, nil
		}
		return payments.SettleResult{}, err
	}
	return payments.SettleResult{
		Found:   true,
		Applied: applied,
		Status:  current.Status.String(),
		OwnerID: current.UserID,
		Amount:  current.Amount,
	}, nil
}
