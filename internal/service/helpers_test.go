package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: repotest.NewDB(t)}
}

func mustUser(t *testing.T, r *repo.GormRepo, email, customerID string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Role: models.RoleUser}
	if customerID != "" {
		u.StripeCustomerID = &customerID
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mustProduct(t *testing.T, r *repo.GormRepo, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func countOrders(t *testing.T, r *repo.GormRepo) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

type notifyRecorder struct {
	mu   sync.Mutex
	sent []notify.OrderConfirmation
}

func (n *notifyRecorder) OrderConfirmed(_ context.Context, oc notify.OrderConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, oc)
	return nil
}
