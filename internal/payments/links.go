package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
)

// Link kinds, used as a metrics label.
const (
	KindInvoice = "invoice"
	KindFund    = "fund"
)

const defaultGatewayTimeout = 10 * time.Second

// LinkIssuer bounds gateway calls with a timeout and maps every failure to
// a dependency error carrying the order code.
type LinkIssuer struct {
	gateway Gateway
	timeout time.Duration
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

type LinkIssuerParams struct {
	Gateway Gateway
	Timeout time.Duration
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

func NewLinkIssuer(params LinkIssuerParams) (*LinkIssuer, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &LinkIssuer{
		gateway: params.Gateway,
		timeout: timeout,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

// Provider reports which gateway links are issued through.
func (i *LinkIssuer) Provider() enums.PaymentProvider {
	return i.gateway.Provider()
}

// Issue requests a checkout link for req.
func (i *LinkIssuer) Issue(ctx context.Context, kind string, req LinkRequest) (*Link, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	link, err := i.gateway.CreateLink(callCtx, req)
	if err == nil && (link == nil || strings.TrimSpace(link.CheckoutURL) == "") {
		err = errors.New("gateway returned no checkout url")
	}
	i.metrics.IncPaymentLink(i.Provider().String(), kind, err)
	if err != nil {
		logCtx := i.logg.WithOrderCode(ctx, req.OrderCode)
		i.logg.Error(logCtx, "payments.link_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable").
			WithDetails(map[string]any{"order_code": req.OrderCode})
	}
	return link, nil
}

// Description is the gateway-visible label for an order code.
func Description(orderCode int64) string {
	return fmt.Sprintf("Payment for order %d", orderCode)
}
