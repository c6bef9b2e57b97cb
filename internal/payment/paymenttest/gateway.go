// Package paymenttest provides an in-memory payment.Gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/storefront/internal/payment"
)

type Gateway struct {
	mu sync.Mutex

	customers map[string]string
	defaults  map[string]string
	attached  map[string]string
	byIdemKey map[string]*payment.Charge
	seq       int

	Charges  []payment.ChargeRequest
	Detached []string

	CreateCustomerErr error
	AttachErr         error
	DefaultErr        error
	ChargeErr         error
	DetachErr         error
	// ChargeStatus overrides the status of successful charges.
	ChargeStatus string
}

var _ payment.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{
		customers: map[string]string{},
		defaults:  map[string]string{},
		attached:  map[string]string{},
		byIdemKey: map[string]*payment.Charge{},
	}
}

func (g *Gateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

// SetDefault seeds a default payment method for a customer.
func (g *Gateway) SetDefault(customerID, paymentMethodID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaults[customerID] = paymentMethodID
}

func (g *Gateway) AttachedTo(paymentMethodID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attached[paymentMethodID]
}

func (g *Gateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Charges)
}

func (g *Gateway) CreateCustomer(_ context.Context, p payment.CustomerParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateCustomerErr != nil {
		return "", g.CreateCustomerErr
	}
	id := g.next("cus")
	g.customers[id] = p.Email
	return id, nil
}

func (g *Gateway) AttachPaymentMethod(_ context.Context, paymentMethodID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AttachErr != nil {
		return g.AttachErr
	}
	g.attached[paymentMethodID] = customerID
	return nil
}

func (g *Gateway) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AttachErr != nil {
		return g.AttachErr
	}
	g.defaults[customerID] = paymentMethodID
	return nil
}

func (g *Gateway) DefaultPaymentMethod(_ context.Context, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DefaultErr != nil {
		return "", g.DefaultErr
	}
	return g.defaults[customerID], nil
}

func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if req.IdempotencyKey != "" {
		if ch, ok := g.byIdemKey[idemKey(req)]; ok {
			return ch, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrIndeterminate, err)
	}

	g.Charges = append(g.Charges, req)
	if g.ChargeErr != nil {
		return nil, g.ChargeErr
	}

	status := payment.ChargeStatusSucceeded
	if g.ChargeStatus != "" {
		status = g.ChargeStatus
	}
	ch := &payment.Charge{ID: g.next("pi"), Status: status, AmountMinor: req.AmountMinor}
	if payment.Pending(status) {
		return ch, fmt.Errorf("%w: payment intent %s is %s", payment.ErrIndeterminate, ch.ID, status)
	}
	if status != payment.ChargeStatusSucceeded {
		return ch, fmt.Errorf("%w: payment intent %s is %s", payment.ErrDeclined, ch.ID, status)
	}
	if req.IdempotencyKey != "" {
		g.byIdemKey[idemKey(req)] = ch
	}
	return ch, nil
}

// idemKey scopes replays to the customer so one customer never receives
// another's charge.
func idemKey(req payment.ChargeRequest) string {
	return req.CustomerID + "|" + req.IdempotencyKey
}

func (g *Gateway) DetachPaymentMethod(_ context.Context, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DetachErr != nil {
		return g.DetachErr
	}
	delete(g.attached, paymentMethodID)
	for cus, pm := range g.defaults {
		if pm == paymentMethodID {
			delete(g.defaults, cus)
		}
	}
	g.Detached = append(g.Detached, paymentMethodID)
	return nil
}
