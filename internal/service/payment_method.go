package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type PaymentMethodService struct {
	Users          repo.UserRepository
	PaymentMethods repo.PaymentMethodRepository
	Gateway        payment.Gateway
	Events         events.Publisher
}

// Attach links a gateway payment method token to the user and makes it the
// default. The gateway customer is created on first use.
func (s *PaymentMethodService) Attach(ctx context.Context, userID uint, token string) (*models.PaymentMethod, error) {
	l := logging.FromContext(ctx).With("svc", "payment_method.attach", "user_id", userID)

	token = strings.TrimSpace(token)
	if token == "" {
		verr := &ValidationError{}
		verr.add("paymentMethodId", "paymentMethodId should not be empty")
		return nil, verr
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}

	if !user.HasPaymentCustomer() {
		customerID, err := s.Gateway.CreateCustomer(ctx, payment.CustomerParams{Email: user.Email, UserID: user.ID})
		if err != nil {
			return nil, fmt.Errorf("%w: create customer: %v", ErrPaymentGateway, err)
		}
		if err := s.Users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			return nil, fmt.Errorf("%w: save customer id: %v", ErrInternal, err)
		}
		user.StripeCustomerID = &customerID
		l.Infow("payment customer created", "customer_id", customerID)
	}
	customerID := *user.StripeCustomerID

	if err := s.Gateway.AttachPaymentMethod(ctx, token, customerID); err != nil {
		return nil, fmt.Errorf("%w: attach: %v", ErrPaymentGateway, err)
	}
	if err := s.Gateway.SetDefaultPaymentMethod(ctx, customerID, token); err != nil {
		return nil, fmt.Errorf("%w: set default: %v", ErrPaymentGateway, err)
	}

	pm := &models.PaymentMethod{UserID: user.ID, StripePaymentMethodID: token}
	if err := s.PaymentMethods.CreatePaymentMethod(ctx, pm); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: payment method already saved", ErrConflict)
		}
		return nil, fmt.Errorf("%w: save payment method: %v", ErrInternal, err)
	}

	events.Emit(ctx, s.Events, events.TopicPayments, user.ID, events.New("payment_method_attached", events.Event{
		"userId":          user.ID,
		"paymentMethodId": pm.ID,
	}))
	return pm, nil
}

// Detach removes the local record first. The gateway detach is best-effort:
// a failure is logged and published for compensation, and the call succeeds.
func (s *PaymentMethodService) Detach(ctx context.Context, userID, paymentMethodID uint) error {
	l := logging.FromContext(ctx).With("svc", "payment_method.detach", "user_id", userID, "payment_method_id", paymentMethodID)

	pm, err := s.PaymentMethods.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: payment method not found", ErrNotFound)
		}
		return fmt.Errorf("%w: load payment method: %v", ErrInternal, err)
	}
	if err := Authorize(pm.UserID, userID); err != nil {
		return err
	}

	if err := s.PaymentMethods.DeletePaymentMethod(ctx, pm.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: payment method not found", ErrNotFound)
		}
		return fmt.Errorf("%w: delete payment method: %v", ErrInternal, err)
	}

	if err := s.Gateway.DetachPaymentMethod(ctx, pm.StripePaymentMethodID); err != nil {
		l.Warnw("detach_error", "reason", "gateway detach failed, local record removed", "error", err)
		events.Emit(ctx, s.Events, events.TopicPayments, userID, events.New("payment_method_detach_failed", events.Event{
			"userId":                userID,
			"paymentMethodId":       pm.ID,
			"stripePaymentMethodId": pm.StripePaymentMethodID,
			"error":                 err.Error(),
		}))
		return nil
	}

	events.Emit(ctx, s.Events, events.TopicPayments, userID, events.New("payment_method_detached", events.Event{
		"userId":          userID,
		"paymentMethodId": pm.ID,
	}))
	return nil
}

func (s *PaymentMethodService) List(ctx context.Context, userID uint) ([]models.PaymentMethod, error) {
	pms, err := s.PaymentMethods.ListPaymentMethods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list payment methods: %v", ErrInternal, err)
	}
	return pms, nil
}

// Authorize allows a mutation only by the owner of the resource.
func Authorize(ownerID, requesterID uint) error {
	if ownerID != requesterID {
		return fmt.Errorf("%w: not the owner", ErrForbidden)
	}
	return nil
}
