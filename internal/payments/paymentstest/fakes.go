// Package paymentstest provides in-memory gateway doubles for service tests.
package paymentstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Gateway records link requests and answers with a predictable URL.
type Gateway struct {
	mu       sync.Mutex
	Err      error
	Requests []payments.LinkRequest
}

func (g *Gateway) Provider() enums.PaymentProvider { return enums.PaymentProviderPayOS }

func (g *Gateway) CreateLink(ctx context.Context, req payments.LinkRequest) (*payments.Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.Err != nil {
		return nil, g.Err
	}
	return &payments.Link{
		CheckoutURL:   fmt.Sprintf("https://pay.test/checkout/%d", req.OrderCode),
		PaymentLinkID: fmt.Sprintf("link-%d", req.OrderCode),
	}, nil
}

// Last returns the most recent request.
func (g *Gateway) Last() payments.LinkRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return payments.LinkRequest{}
	}
	return g.Requests[len(g.Requests)-1]
}

// Issuer wraps g in a LinkIssuer.
func Issuer(g *Gateway) *payments.LinkIssuer {
	issuer, err := payments.NewLinkIssuer(payments.LinkIssuerParams{Gateway: g})
	if err != nil {
		panic(err)
	}
	return issuer
}

// Codes hands out order codes from a fixed list, then counts upward.
type Codes struct {
	mu    sync.Mutex
	queue []int64
	next  int64
}

func NewCodes(codes ...int64) *Codes {
	return &Codes{queue: codes, next: 1_000_000}
}

func (c *Codes) Next(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		code := c.queue[0]
		c.queue = c.queue[1:]
		return code, nil
	}
	c.next++
	return c.next, nil
}
