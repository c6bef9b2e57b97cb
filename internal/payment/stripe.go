package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/Skotchmaster/storefront/pkg/metrics"
)

const system = "stripe"

type StripeConfig struct {
	SecretKey string
	Timeout   time.Duration
	// URL overrides the API base, used for stripe-mock in tests.
	URL    string
	Logger stripe.LeveledLoggerInterface
}

type StripeGateway struct {
	api     *client.API
	metrics *metrics.Metrics
}

var _ Gateway = (*StripeGateway)(nil)

func NewStripeGateway(cfg StripeConfig, m *metrics.Metrics) *StripeGateway {
	bc := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		// a retried charge without an idempotency key can capture twice
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     cfg.Logger,
	}
	if cfg.URL != "" {
		bc.URL = stripe.String(cfg.URL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, bc),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, bc),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, bc),
	}

	return &StripeGateway{api: client.New(cfg.SecretKey, backends), metrics: m}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p CustomerParams) (id string, err error) {
	defer func() { g.metrics.ObserveExternal(system, "customers.create", err) }()

	params := &stripe.CustomerParams{Email: stripe.String(p.Email)}
	params.Context = ctx
	params.AddMetadata("userId", strconv.FormatUint(uint64(p.UserID), 10))

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return "", classify(err, false)
	}
	return cus.ID, nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (err error) {
	defer func() { g.metrics.ObserveExternal(system, "payment_methods.attach", err) }()

	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	if _, err := g.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return classify(err, false)
	}
	return nil
}

func (g *StripeGateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (err error) {
	defer func() { g.metrics.ObserveExternal(system, "customers.update", err) }()

	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := g.api.Customers.Update(customerID, params); err != nil {
		return classify(err, false)
	}
	return nil
}

func (g *StripeGateway) DefaultPaymentMethod(ctx context.Context, customerID string) (id string, err error) {
	defer func() { g.metrics.ObserveExternal(system, "customers.retrieve", err) }()

	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := g.api.Customers.Get(customerID, params)
	if err != nil {
		return "", classify(err, false)
	}
	if cus.Deleted || cus.InvoiceSettings == nil || cus.InvoiceSettings.DefaultPaymentMethod == nil {
		return "", nil
	}
	return cus.InvoiceSettings.DefaultPaymentMethod.ID, nil
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (ch *Charge, err error) {
	defer func() { g.metrics.ObserveExternal(system, "payment_intents.create", err) }()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify(err, true)
	}

	ch = &Charge{ID: pi.ID, Status: string(pi.Status), AmountMinor: pi.Amount}
	switch {
	case pi.Status == stripe.PaymentIntentStatusSucceeded:
		return ch, nil
	case Pending(ch.Status):
		return ch, fmt.Errorf("%w: payment intent %s is %s", ErrIndeterminate, pi.ID, pi.Status)
	default:
		return ch, fmt.Errorf("%w: payment intent %s is %s", ErrDeclined, pi.ID, pi.Status)
	}
}

func (g *StripeGateway) DetachPaymentMethod(ctx context.Context, paymentMethodID string) (err error) {
	defer func() { g.metrics.ObserveExternal(system, "payment_methods.detach", err) }()

	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	if _, err := g.api.PaymentMethods.Detach(paymentMethodID, params); err != nil {
		return classify(err, false)
	}
	return nil
}

// classify maps stripe-go errors onto the package sentinels. For charges any
// failure that does not come back as a definite processor answer is
// indeterminate: the request may have reached the processor.
func classify(err error, charge bool) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch {
		case se.Type == stripe.ErrorTypeCard:
			return fmt.Errorf("%w: %s (%s)", ErrDeclined, se.Msg, se.Code)
		case charge && (se.HTTPStatusCode >= 500 || se.HTTPStatusCode == 0 || se.Type == stripe.ErrorTypeAPI):
			return fmt.Errorf("%w: %s", ErrIndeterminate, se.Msg)
		default:
			return fmt.Errorf("%w: %s", ErrGateway, se.Msg)
		}
	}

	if charge {
		return fmt.Errorf("%w: %v", ErrIndeterminate, err)
	}
	return fmt.Errorf("%w: %v", ErrGateway, err)
}
