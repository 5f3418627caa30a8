package funds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

const (
	successPath   = "/donation-successful"
	cancelPath    = "/"
	createRetries = 3

	messageAllFunds = "All funds retrieved successfully"
	messageOwnFunds = "Your funds retrieved successfully"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCodeSource interface {
	Next(ctx context.Context) (int64, error)
}

type linkIssuer interface {
	Provider() enums.PaymentProvider
	Issue(ctx context.Context, kind string, req payments.LinkRequest) (*payments.Link, error)
}

// Service exposes donation checkout and listing.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CheckoutResult, error)
	List(ctx context.Context, principal auth.Principal) (*ListResult, error)
}

type ServiceParams struct {
	Repo        *Repository
	Tx          txRunner
	OrderCodes  orderCodeSource
	Links       linkIssuer
	FrontendURL func(path string) string
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo  *Repository
	tx    txRunner
	codes orderCodeSource
	links linkIssuer
	url   func(path string) string
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("fund repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.OrderCodes == nil {
		return nil, fmt.Errorf("order code generator required")
	}
	if params.Links == nil {
		return nil, fmt.Errorf("link issuer required")
	}
	if params.FrontendURL == nil {
		return nil, fmt.Errorf("frontend url builder required")
	}
	s := &service{
		repo:  params.Repo,
		tx:    params.Tx,
		codes: params.OrderCodes,
		links: params.Links,
		url:   params.FrontendURL,
		logg:  params.Logger,
		now:   params.Now,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CheckoutResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"amount": "must be greater than 0"})
	}

	var fund *models.Fund
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := s.codes.Next(ctx)
		if err != nil {
			return nil, err
		}
		fund = &models.Fund{
			ID:           uuid.New(),
			UserID:       input.UserID,
			Amount:       input.Amount,
			DateReceived: s.now().UTC(),
			Status:       enums.FundStatusPending,
			OrderCode:    code,
			Provider:     s.links.Provider(),
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Create(ctx, fund)
		})
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist fund")
		}
		fund = nil
	}
	if fund == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order code")
	}

	ctx = s.logg.WithOrderCode(ctx, fund.OrderCode)
	link, err := s.links.Issue(ctx, payments.KindFund, payments.LinkRequest{
		Amount:      fund.Amount,
		OrderCode:   fund.OrderCode,
		Description: payments.Description(fund.OrderCode),
		ReturnURL:   s.url(successPath),
		CancelURL:   s.url(cancelPath),
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCheckoutURL(ctx, fund.ID, link.CheckoutURL); err != nil {
		s.logg.Error(ctx, "funds.store_checkout_url_failed", err)
	}
	s.logg.Info(ctx, "funds.created")
	return &CheckoutResult{CheckoutURL: link.CheckoutURL, OrderCode: fund.OrderCode}, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal) (*ListResult, error) {
	var owner *uuid.UUID
	message := messageAllFunds
	if !principal.CanViewAll(auth.ResourceFunds) {
		if principal.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		owner = &principal.UserID
		message = messageOwnFunds
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list funds")
	}
	out := &ListResult{Message: message, Funds: make([]FundView, 0, len(rows)), TotalAmount: decimal.Zero}
	for _, row := range rows {
		out.Funds = append(out.Funds, toView(row))
		out.TotalAmount = out.TotalAmount.Add(decimal.NewFromInt(row.Amount))
	}
	return out, nil
}
