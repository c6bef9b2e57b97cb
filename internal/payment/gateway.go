package payment

import (
	"context"
	"errors"
)

var (
	// ErrDeclined means the processor refused the charge. Nothing was captured.
	ErrDeclined = errors.New("payment declined")
	// ErrIndeterminate means the outcome of a charge is unknown (timeout,
	// transport failure, processor 5xx). It must be reconciled, not retried blindly.
	ErrIndeterminate = errors.New("payment outcome unknown")
	// ErrGateway covers every other processor-side failure.
	ErrGateway = errors.New("payment gateway error")
)

type CustomerParams struct {
	Email  string
	UserID uint
}

type ChargeRequest struct {
	AmountMinor     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	IdempotencyKey  string
	Metadata        map[string]string
}

type Charge struct {
	ID          string
	Status      string
	AmountMinor int64
}

const (
	ChargeStatusSucceeded       = "succeeded"
	ChargeStatusProcessing      = "processing"
	ChargeStatusRequiresCapture = "requires_capture"
)

// Pending reports whether a confirmed charge may still settle. Such a charge
// is neither a success nor a decline and has to be reconciled.
func Pending(status string) bool {
	return status == ChargeStatusProcessing || status == ChargeStatusRequiresCapture
}

// Gateway is the subset of the payment processor used by the services.
type Gateway interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (string, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	// DefaultPaymentMethod returns "" when the customer has none.
	DefaultPaymentMethod(ctx context.Context, customerID string) (string, error)
	// Charge creates and confirms a payment intent in one call.
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}
