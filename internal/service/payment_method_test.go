package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/payment/paymenttest"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
)

func newPaymentMethodService(t *testing.T) (*service.PaymentMethodService, *repo.GormRepo, *paymenttest.Gateway, *events.Recorder) {
	t.Helper()
	r := newRepo(t)
	gw := paymenttest.New()
	rec := &events.Recorder{}
	return &service.PaymentMethodService{Users: r, PaymentMethods: r, Gateway: gw, Events: rec}, r, gw, rec
}

func TestAttach_CreatesCustomerOnce(t *testing.T) {
	t.Parallel()
	svc, r, gw, rec := newPaymentMethodService(t)
	ctx := context.Background()
	u := mustUser(t, r, "a@example.com", "")

	pm, err := svc.Attach(ctx, u.ID, "pm_one")
	require.NoError(t, err)
	assert.Equal(t, "pm_one", pm.StripePaymentMethodID)

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.HasPaymentCustomer())
	customerID := *got.StripeCustomerID
	assert.Equal(t, customerID, gw.AttachedTo("pm_one"))

	def, err := gw.DefaultPaymentMethod(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, "pm_one", def)

	_, err = svc.Attach(ctx, u.ID, "pm_two")
	require.NoError(t, err)
	got, err = r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, customerID, *got.StripeCustomerID)
	def, _ = gw.DefaultPaymentMethod(ctx, customerID)
	assert.Equal(t, "pm_two", def)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, []string{"payment_method_attached", "payment_method_attached"}, rec.Types())
}

func TestAttach_Errors(t *testing.T) {
	t.Parallel()
	svc, r, gw, _ := newPaymentMethodService(t)
	ctx := context.Background()
	u := mustUser(t, r, "b@example.com", "")

	_, err := svc.Attach(ctx, u.ID, "  ")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Attach(ctx, 404, "pm_x")
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	gw.AttachErr = fmt.Errorf("%w: no such payment method", payment.ErrGateway)
	_, err = svc.Attach(ctx, u.ID, "pm_bad")
	assert.ErrorIs(t, err, service.ErrPaymentGateway)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDetach(t *testing.T) {
	t.Parallel()
	svc, r, gw, rec := newPaymentMethodService(t)
	ctx := context.Background()
	owner := mustUser(t, r, "owner@example.com", "")
	intruder := mustUser(t, r, "intruder@example.com", "")

	pm, err := svc.Attach(ctx, owner.ID, "pm_card")
	require.NoError(t, err)

	err = svc.Detach(ctx, intruder.ID, pm.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = r.GetPaymentMethod(ctx, pm.ID)
	require.NoError(t, err, "forbidden detach must leave the row")
	assert.Empty(t, gw.Detached)

	assert.ErrorIs(t, svc.Detach(ctx, owner.ID, 9999), service.ErrNotFound)

	require.NoError(t, svc.Detach(ctx, owner.ID, pm.ID))
	_, err = r.GetPaymentMethod(ctx, pm.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Equal(t, []string{"pm_card"}, gw.Detached)
	_, ok := rec.Find("payment_method_detached")
	assert.True(t, ok)
}

func TestDetach_GatewayFailureStillSucceeds(t *testing.T) {
	t.Parallel()
	svc, r, gw, rec := newPaymentMethodService(t)
	ctx := context.Background()
	u := mustUser(t, r, "c@example.com", "")

	pm, err := svc.Attach(ctx, u.ID, "pm_card")
	require.NoError(t, err)

	gw.DetachErr = fmt.Errorf("%w: upstream unavailable", payment.ErrGateway)
	require.NoError(t, svc.Detach(ctx, u.ID, pm.ID))

	_, err = r.GetPaymentMethod(ctx, pm.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	ev, ok := rec.Find("payment_method_detach_failed")
	require.True(t, ok)
	assert.Equal(t, events.TopicPayments, ev.Topic)
	assert.Equal(t, "pm_card", ev.Event["stripePaymentMethodId"])
}
