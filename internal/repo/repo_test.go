package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: repotest.NewDB(t)}
}

func mustUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mustProduct(t *testing.T, r *repo.GormRepo, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func TestUsers(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mustUser(t, r, "a@example.com")
	assert.NotZero(t, u.ID)

	err := r.CreateUser(ctx, &models.User{Email: "a@example.com", PasswordHash: "y", Role: models.RoleUser})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	_, err = r.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.SetStripeCustomerID(ctx, u.ID, "cus_1"))
	got, err := r.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, got.HasPaymentCustomer())
	assert.Equal(t, "cus_1", *got.StripeCustomerID)

	assert.ErrorIs(t, r.SetStripeCustomerID(ctx, 999, "cus_2"), repo.ErrNotFound)
}

func TestProducts(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	p1 := mustProduct(t, r, "Red Mug", "19.99")
	p2 := mustProduct(t, r, "Blue 50% Cup", "5.00")
	mustProduct(t, r, "Teapot", "30.00")

	got, err := r.GetProductsByIDs(ctx, []uint{p1.ID, p2.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	total, items, err := r.ListProducts(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)

	total, items, err = r.SearchProducts(ctx, "mug", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, p1.ID, items[0].ID)

	total, _, err = r.SearchProducts(ctx, "50%", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	name := "Green Mug"
	price := decimal.RequireFromString("21.50")
	upd, err := r.UpdateProduct(ctx, p1.ID, repo.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Green Mug", upd.Name)
	assert.True(t, upd.Price.Equal(price))

	_, err = r.UpdateProduct(ctx, 999, repo.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.DeleteProduct(ctx, p2.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, p2.ID), repo.ErrNotFound)
}

func TestPaymentMethods(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mustUser(t, r, "pm@example.com")
	pm := &models.PaymentMethod{UserID: u.ID, StripePaymentMethodID: "pm_1"}
	require.NoError(t, r.CreatePaymentMethod(ctx, pm))

	err := r.CreatePaymentMethod(ctx, &models.PaymentMethod{UserID: u.ID, StripePaymentMethodID: "pm_1"})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	list, err := r.ListPaymentMethods(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := r.GetPaymentMethod(ctx, pm.ID)
	require.NoError(t, err)
	assert.Equal(t, "pm_1", got.StripePaymentMethodID)

	require.NoError(t, r.DeletePaymentMethod(ctx, pm.ID))
	assert.ErrorIs(t, r.DeletePaymentMethod(ctx, pm.ID), repo.ErrNotFound)
	_, err = r.GetPaymentMethod(ctx, pm.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCreateOrderWithItems(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mustUser(t, r, "o@example.com")
	p := mustProduct(t, r, "Mug", "19.99")
	key := "idem-1"

	order := &models.Order{
		UserID:          u.ID,
		Total:           decimal.RequireFromString("39.98"),
		PaymentIntentID: "pi_1",
		IdempotencyKey:  &key,
		Items: []models.OrderItem{
			{ProductID: p.ID, Quantity: 2, UnitPrice: p.Price},
		},
	}
	require.NoError(t, r.CreateOrderWithItems(ctx, order))
	require.NotZero(t, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	found, err := r.FindOrderByIdempotencyKey(ctx, u.ID, key)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 1)

	_, err = r.FindOrderByIdempotencyKey(ctx, u.ID, "other")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	dup := &models.Order{UserID: u.ID, Total: decimal.NewFromInt(1), PaymentIntentID: "pi_2", IdempotencyKey: &key}
	assert.ErrorIs(t, r.CreateOrderWithItems(ctx, dup), repo.ErrDuplicate)
	assert.Zero(t, dup.ID)

	total, orders, err := r.ListOrdersByUser(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	require.NotNil(t, orders[0].Items[0].Product)
	assert.Equal(t, "Mug", orders[0].Items[0].Product.Name)
}

func TestCreateOrderWithItems_RollsBackOnItemFailure(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	u := mustUser(t, r, "rb@example.com")
	order := &models.Order{
		UserID:          u.ID,
		Total:           decimal.NewFromInt(1),
		PaymentIntentID: "pi_rb",
		Items:           []models.OrderItem{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
	}
	require.Error(t, r.CreateOrderWithItems(ctx, order))

	var count int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSalesReport(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	alice := mustUser(t, r, "alice@example.com")
	bob := mustUser(t, r, "bob@shop.io")
	p := mustProduct(t, r, "Mug", "10.00")

	for i, row := range []struct {
		user  uint
		total string
	}{{alice.ID, "30.00"}, {bob.ID, "10.00"}, {alice.ID, "20.00"}} {
		o := &models.Order{
			UserID:          row.user,
			Total:           decimal.RequireFromString(row.total),
			PaymentIntentID: "pi_" + row.total,
			Items:           []models.OrderItem{{ProductID: p.ID, Quantity: i + 1, UnitPrice: p.Price}},
		}
		require.NoError(t, r.CreateOrderWithItems(ctx, o))
	}

	total, orders, err := r.SalesReport(ctx, repo.SalesFilter{Limit: 10, SortBy: repo.SortByTotal})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 3)
	assert.Equal(t, "10", orders[0].Total.String())
	assert.Equal(t, "30", orders[2].Total.String())
	require.NotNil(t, orders[0].User)
	assert.Equal(t, "bob@shop.io", orders[0].User.Email)
	require.Len(t, orders[0].Items, 1)
	assert.NotNil(t, orders[0].Items[0].Product)

	total, orders, err = r.SalesReport(ctx, repo.SalesFilter{Limit: 10, SortBy: repo.SortByTotal, Desc: true, Email: "ALICE"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, "30", orders[0].Total.String())

	future := time.Now().UTC().Add(24 * time.Hour)
	total, orders, err = r.SalesReport(ctx, repo.SalesFilter{Limit: 10, From: &future})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)

	total, orders, err = r.SalesReport(ctx, repo.SalesFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 1)
}
