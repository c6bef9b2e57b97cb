package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/idempotency"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/tracing"
)

const (
	useCasePlaceOrder = "order.place"
	useCaseListOrders = "order.list_mine"

	DefaultPaymentTimeout = 15 * time.Second
	DefaultCurrency       = "usd"

	notifyTimeout = 10 * time.Second
)

type OrderLine struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type PlaceOrderInput struct {
	Items          []OrderLine `json:"items"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
}

type PlaceOrderResult struct {
	OrderID         uint
	Total           decimal.Decimal
	PaymentIntentID string
	// Replayed is set when an earlier order with the same idempotency key was returned.
	Replayed bool
}

type OrderService struct {
	Users    repo.UserRepository
	Products repo.ProductRepository
	Orders   repo.OrderRepository
	Gateway  payment.Gateway

	// Locker is optional. Without it concurrent duplicates fall through to
	// the gateway idempotency key and the unique (user, key) index.
	Locker   idempotency.Locker
	Events   events.Publisher
	Notifier notify.Notifier
	Metrics  *metrics.Metrics

	Currency       string
	PaymentTimeout time.Duration
}

// PlaceOrder validates the cart, charges the customer's default payment
// method and records the order with its items.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (res *PlaceOrderResult, err error) {
	l := logging.FromContext(ctx).With("svc", useCasePlaceOrder, "user_id", userID)

	ctx, span := tracing.Start(ctx, "PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("order.lines", len(in.Items)),
	)
	start := time.Now()
	var (
		amountMinor int64
		intentID    string
	)

	defer func() {
		outcome, statusText := metrics.OutcomeSuccess, "OK"
		if err != nil {
			outcome, statusText = metrics.OutcomeError, err.Error()
		}
		s.Metrics.ObserveUseCase(useCasePlaceOrder, outcome, start)
		if res != nil {
			span.SetAttributes(attribute.Int64("order.id", int64(res.OrderID)), attribute.Bool("order.replayed", res.Replayed))
		}
		tracing.End(span, err, statusText)

		fields := append([]any{
			"outcome", outcome,
			"latency_seconds", time.Since(start).Seconds(),
			"amount_minor", amountMinor,
			"payment_intent_id", intentID,
		}, tracing.LogFields(ctx)...)

		switch {
		case errors.Is(err, ErrPersistenceFailedAfterCharge):
			l.Errorw("place_order_error", append(fields, "reason", "reconciliation_required", "error", err)...)
		case err != nil:
			l.Warnw("place_order_error", append(fields, "error", err)...)
		default:
			l.Infow("order placed", append(fields, "order_id", res.OrderID, "replayed", res.Replayed)...)
		}
	}()

	if err := ValidatePlaceOrder(in); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		release, err := s.lock(ctx, userID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		defer release()

		prev, err := s.Orders.FindOrderByIdempotencyKey(ctx, userID, in.IdempotencyKey)
		switch {
		case err == nil:
			intentID = prev.PaymentIntentID
			return replayed(prev), nil
		case !errors.Is(err, repo.ErrNotFound):
			return nil, fmt.Errorf("%w: lookup idempotency key: %v", ErrInternal, err)
		}
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d does not exist", ErrNoPaymentMethod, userID)
		}
		return nil, fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}
	if !user.HasPaymentCustomer() {
		return nil, ErrNoPaymentMethod
	}

	total, items, err := s.price(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	amountMinor = total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	customerID := *user.StripeCustomerID
	pmID, err := s.Gateway.DefaultPaymentMethod(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve customer: %v", ErrPaymentGateway, err)
	}
	if pmID == "" {
		return nil, ErrNoDefaultPaymentMethod
	}

	req := payment.ChargeRequest{
		AmountMinor:     amountMinor,
		Currency:        s.currency(),
		CustomerID:      customerID,
		PaymentMethodID: pmID,
		Metadata:        map[string]string{"userId": strconv.FormatUint(uint64(userID), 10)},
	}
	if in.IdempotencyKey != "" {
		req.IdempotencyKey = idempotency.ChargeKey(userID, in.IdempotencyKey)
	}
	charge, err := s.charge(ctx, req)
	if charge != nil {
		intentID = charge.ID
	}
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Total:           total,
		PaymentIntentID: charge.ID,
		Items:           items,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		order.IdempotencyKey = &key
	}

	// the charge is captured: a client disconnect must not abort this write
	if err := s.Orders.CreateOrderWithItems(context.WithoutCancel(ctx), order); err != nil {
		if in.IdempotencyKey != "" && errors.Is(err, repo.ErrDuplicate) {
			if prev, ferr := s.Orders.FindOrderByIdempotencyKey(context.WithoutCancel(ctx), userID, in.IdempotencyKey); ferr == nil {
				return replayed(prev), nil
			}
		}
		perr := &PersistenceFailedError{PaymentIntentID: charge.ID, AmountMinor: amountMinor, Err: err}
		events.Emit(ctx, s.Events, events.TopicOrders, userID, events.New("order_persist_failed", events.Event{
			"userId":          userID,
			"paymentIntentId": charge.ID,
			"amountMinor":     amountMinor,
			"currency":        s.currency(),
			"error":           err.Error(),
		}))
		return nil, perr
	}

	events.Emit(ctx, s.Events, events.TopicOrders, order.ID, events.New("order_created", events.Event{
		"orderId":         order.ID,
		"userId":          userID,
		"total":           total.StringFixed(2),
		"paymentIntentId": charge.ID,
		"items":           len(items),
	}))
	s.confirm(ctx, user.Email, order)

	return &PlaceOrderResult{OrderID: order.ID, Total: total, PaymentIntentID: charge.ID}, nil
}

func (s *OrderService) lock(ctx context.Context, userID uint, key string) (func(), error) {
	if s.Locker == nil {
		return func() {}, nil
	}
	release, err := s.Locker.Acquire(ctx, idempotency.OrderKey(userID, key))
	switch {
	case errors.Is(err, idempotency.ErrInFlight):
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case err != nil:
		// the unique (user, key) index still holds, so keep going without the lock
		logging.FromContext(ctx).Warnw("idempotency_lock_error", "reason", "lock unavailable", "error", err)
		return func() {}, nil
	}
	return release, nil
}

// price resolves every distinct product and snapshots its price per line.
func (s *OrderService) price(ctx context.Context, lines []OrderLine) (decimal.Decimal, []models.OrderItem, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		id := uint(line.ProductID)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	products, err := s.Products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: load products: %v", ErrInternal, err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if len(byID) != len(ids) {
		missing := make([]uint, 0, len(ids)-len(byID))
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return decimal.Zero, nil, &ProductNotFoundError{Missing: missing}
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		p := byID[uint(line.ProductID)]
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
	}
	return total, items, nil
}

// charge runs detached from the caller: once issued, a client disconnect must
// not turn a capture into an unknown outcome. The returned charge is set
// whenever the processor answered, even on error.
func (s *OrderService) charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	timeout := s.PaymentTimeout
	if timeout <= 0 {
		timeout = DefaultPaymentTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	ch, err := s.Gateway.Charge(ctx, req)
	switch {
	case err == nil && payment.Pending(ch.Status):
		return ch, fmt.Errorf("%w: payment intent %s is %s", ErrPaymentUnknown, ch.ID, ch.Status)
	case err == nil && ch.Status != payment.ChargeStatusSucceeded:
		return ch, fmt.Errorf("%w: payment intent %s is %s", ErrPaymentFailed, ch.ID, ch.Status)
	case err == nil:
		return ch, nil
	case errors.Is(err, payment.ErrIndeterminate), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ch, fmt.Errorf("%w: %v", ErrPaymentUnknown, err)
	default:
		return ch, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
}

func (s *OrderService) confirm(ctx context.Context, email string, order *models.Order) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := s.Notifier.OrderConfirmed(ctx, notify.OrderConfirmation{
		Email:    email,
		OrderID:  order.ID,
		Total:    order.Total,
		Currency: s.currency(),
	})
	if err != nil {
		logging.FromContext(ctx).Warnw("order_confirmation_error", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) currency() string {
	if s.Currency == "" {
		return DefaultCurrency
	}
	return s.Currency
}

func replayed(o *models.Order) *PlaceOrderResult {
	return &PlaceOrderResult{OrderID: o.ID, Total: o.Total, PaymentIntentID: o.PaymentIntentID, Replayed: true}
}

// ListMine returns the caller's orders, newest first, with items and products.
func (s *OrderService) ListMine(ctx context.Context, userID uint, page, limit int) (_ *Page[models.Order], err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.Metrics.ObserveUseCase(useCaseListOrders, outcome, start)
	}()

	page, offset, limit := pageBounds(page, limit)
	total, orders, err := s.Orders.ListOrdersByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrInternal, err)
	}
	return newPage(page, limit, total, orders), nil
}
