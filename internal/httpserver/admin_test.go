package httpserver_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestAdminProducts(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.user(t, "admin@example.com", models.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/admin/products", map[string]any{"name": "Lamp", "price": 24.5}, admin)
	assertStatus(t, rec, http.StatusCreated)
	created := decode(t, rec)
	assert.Equal(t, "Lamp", created["name"])
	path := fmt.Sprintf("/admin/products/%v", created["id"])

	rec = env.do(t, http.MethodPost, "/admin/products", map[string]any{"name": "Bad", "price": -1}, admin)
	assertStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Validation failed", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPut, path, map[string]any{"price": "19.00"}, admin)
	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Lamp", decode(t, rec)["name"])

	rec = env.do(t, http.MethodPut, "/admin/products/zero", map[string]any{"price": 1}, admin)
	assertStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid product id", decode(t, rec)["message"])

	rec = env.do(t, http.MethodPut, "/admin/products/9999", map[string]any{"price": 1}, admin)
	assertStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Product not found", decode(t, rec)["message"])

	rec = env.do(t, http.MethodDelete, path, nil, admin)
	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Product deleted", decode(t, rec)["message"])

	rec = env.do(t, http.MethodDelete, path, nil, admin)
	assertStatus(t, rec, http.StatusNotFound)

	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, env.events.Types())
}

func TestAdminSales(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.user(t, "admin@example.com", models.RoleAdmin)
	_, alice := env.customer(t, "alice@example.com")
	mug := env.product(t, "Mug", "10.00")

	for qty := 1; qty <= 3; qty++ {
		assertStatus(t, env.do(t, http.MethodPost, "/users/orders", orderBody([2]int{int(mug.ID), qty}), alice), http.StatusCreated)
	}

	rec := env.do(t, http.MethodGet, "/admin/sales?sortBy=total&order=asc&limit=2&user_name=ALI", nil, admin)
	assertStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 3, meta["total"])
	assert.EqualValues(t, 2, meta["totalPages"])
	assert.EqualValues(t, 2, meta["limit"])
	data := body["data"].([]any)
	assert.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "alice@example.com", first["user"].(map[string]any)["email"])

	rec = env.do(t, http.MethodGet, "/admin/sales?sortBy=email", nil, admin)
	assertStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid query parameters", decode(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/admin/sales?page=abc", nil, admin)
	assertStatus(t, rec, http.StatusBadRequest)
}
