package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
)

const (
	successPath   = "/payment-successful"
	cancelPath    = "/"
	createRetries = 3
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

// LinkCanceller voids a hosted checkout at the gateway.
type LinkCanceller interface {
	CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*payos.PaymentLinkInfo, error)
}

type urlBuilder func(path string) string

// Service exposes invoice checkout and lookup.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CheckoutResult, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (*ListResult, error)
	GetByOrderCode(ctx context.Context, principal auth.Principal, orderCode int64) (*InvoiceView, error)
	Cancel(ctx context.Context, principal auth.Principal, orderCode int64) (*InvoiceView, error)
}

type ServiceParams struct {
	Repo        *Repository
	Tx          txRunner
	OrderCodes  orderCodeSource
	Links       linkIssuer
	Canceller   LinkCanceller
	FrontendURL func(path string) string
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo      *Repository
	tx        txRunner
	codes     orderCodeSource
	links     linkIssuer
	canceller LinkCanceller
	url       urlBuilder
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
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
		repo:      params.Repo,
		tx:        params.Tx,
		codes:     params.OrderCodes,
		links:     params.Links,
		canceller: params.Canceller,
		url:       params.FrontendURL,
		logg:      params.Logger,
		now:       params.Now,
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
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	itemIDs := uniqueIDs(input.CartItemIDs)

	lines, err := s.repo.OwnedCartItems(ctx, input.UserID, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(lines) != len(itemIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err := checkCartTotal(lines, input.Amount); err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := s.codes.Next(ctx)
		if err != nil {
			return nil, err
		}
		invoice = &models.Invoice{
			ID:          uuid.New(),
			UserID:      input.UserID,
			FirstName:   input.FirstName,
			LastName:    input.LastName,
			PhoneNumber: input.PhoneNumber,
			Street:      input.Street,
			Ward:        input.Ward,
			District:    input.District,
			City:        input.City,
			Amount:      input.Amount,
			ShippingFee: input.ShippingFee,
			TotalAmount: input.TotalAmount,
			Status:      enums.InvoiceStatusPending,
			OrderCode:   code,
			Provider:    s.links.Provider(),
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Create(ctx, invoice, lines)
		})
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist invoice")
		}
		invoice = nil
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order code")
	}

	ctx = s.logg.WithOrderCode(ctx, invoice.OrderCode)
	link, err := s.links.Issue(ctx, payments.KindInvoice, payments.LinkRequest{
		Amount:      invoice.TotalAmount,
		OrderCode:   invoice.OrderCode,
		Description: payments.Description(invoice.OrderCode),
		ReturnURL:   s.url(successPath),
		CancelURL:   s.url(cancelPath),
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCheckoutURL(ctx, invoice.ID, link.CheckoutURL); err != nil {
		// the link is live; the webhook can still settle the invoice
		s.logg.Error(ctx, "invoices.store_checkout_url_failed", err)
	}
	s.logg.Info(ctx, "invoices.created")
	return &CheckoutResult{CheckoutURL: link.CheckoutURL, OrderCode: invoice.OrderCode}, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (*ListResult, error) {
	var owner *uuid.UUID
	if !principal.CanViewAll(auth.ResourceInvoices) {
		if principal.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		owner = &principal.UserID
	}
	rows, total, err := s.repo.List(ctx, owner, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invoices")
	}
	out := &ListResult{Invoices: make([]InvoiceView, 0, len(rows)), Meta: params.MetaFor(total)}
	for _, row := range rows {
		out.Invoices = append(out.Invoices, toView(row))
	}
	return out, nil
}

func (s *service) GetByOrderCode(ctx context.Context, principal auth.Principal, orderCode int64) (*InvoiceView, error) {
	invoice, err := s.load(ctx, principal, orderCode)
	if err != nil {
		return nil, err
	}
	view := toView(*invoice)
	return &view, nil
}

func (s *service) Cancel(ctx context.Context, principal auth.Principal, orderCode int64) (*InvoiceView, error) {
	invoice, err := s.load(ctx, principal, orderCode)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case enums.InvoiceStatusCancelled:
		view := toView(*invoice)
		return &view, nil
	case enums.InvoiceStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid invoices cannot be cancelled")
	}

	at := s.now().UTC()
	changed, err := s.repo.MarkCancelled(ctx, orderCode, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel invoice")
	}
	if !changed {
		// lost a race with the webhook or another cancel
		return s.GetByOrderCode(ctx, principal, orderCode)
	}

	ctx = s.logg.WithOrderCode(ctx, orderCode)
	if s.canceller != nil && invoice.Provider == enums.PaymentProviderPayOS {
		if _, err := s.canceller.CancelPaymentLink(ctx, orderCode, "cancelled by customer"); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "invoices.cancel_link_failed")
		}
	}
	s.logg.Info(ctx, "invoices.cancelled")

	invoice.Status = enums.InvoiceStatusCancelled
	invoice.CancelledAt = &at
	view := toView(*invoice)
	return &view, nil
}

func (s *service) load(ctx context.Context, principal auth.Principal, orderCode int64) (*models.Invoice, error) {
	if orderCode <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code must be positive")
	}
	invoice, err := s.repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	if !principal.CanViewAll(auth.ResourceInvoices) && !principal.Owns(invoice.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	required := map[string]string{
		"firstName":   input.FirstName,
		"lastName":    input.LastName,
		"phoneNumber": input.PhoneNumber,
		"street":      input.Street,
		"ward":        input.Ward,
		"district":    input.District,
		"city":        input.City,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			details[field] = "is required"
		}
	}
	if input.Amount < 0 {
		details["amount"] = "must be at least 0"
	}
	if input.ShippingFee < 0 {
		details["shippingFee"] = "must be at least 0"
	}
	switch {
	case input.TotalAmount <= 0:
		details["totalAmount"] = "must be greater than 0"
	case input.TotalAmount != input.Amount+input.ShippingFee:
		details["totalAmount"] = "must equal amount plus shippingFee"
	}
	if len(input.CartItemIDs) == 0 {
		details["cartItemIds"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

// checkCartTotal rejects an amount that differs from the lines priced at
// their current product price, rounded to whole VND.
func checkCartTotal(lines []models.CartItem, amount int64) error {
	total := decimal.Zero
	for _, line := range lines {
		if line.Product == nil || line.Product.Deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"cart_item_id": line.ID})
		}
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if want := total.Round(0).IntPart(); want != amount {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount does not match cart total").
			WithDetails(map[string]any{"amount": amount, "cart_total": want})
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
