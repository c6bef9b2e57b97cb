package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "github.com/Skotchmaster/storefront/docs"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/idempotency"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment/paymenttest"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var jwtSecret = []byte("handler-test-secret")

type testEnv struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	gw     *paymenttest.Gateway
	events *events.Recorder
	orders *service.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := &repo.GormRepo{DB: repotest.NewDB(t)}
	gw := paymenttest.New()
	rec := &events.Recorder{}
	m := metrics.New("test")

	orders := &service.OrderService{
		Users: r, Products: r, Orders: r,
		Gateway: gw,
		Locker:  idempotency.NewMemoryLocker(),
		Events:  rec,
		Metrics: m,
	}

	e := echo.New()
	e.Use(loggingmw.RequestLogger(zap.NewNop().Sugar()))
	e.Use(m.Middleware())
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:          &httpserver.AuthHTTP{Svc: &service.AuthService{Users: r, JWTSecret: jwtSecret}},
		ProductHandler:       &httpserver.ProductHTTP{Svc: &service.CatalogService{Products: r, Events: rec}},
		OrderHandler:         &httpserver.OrderHTTP{Svc: orders},
		PaymentMethodHandler: &httpserver.PaymentMethodHTTP{Svc: &service.PaymentMethodService{Users: r, PaymentMethods: r, Gateway: gw, Events: rec}},
		SalesHandler:         &httpserver.SalesHTTP{Svc: &service.ReportService{Orders: r, Metrics: m}},
		JWTSecret:            jwtSecret,
		Metrics:              m,
		Ready:                func(ctx context.Context) error { return pkgdb.Ping(ctx, r.DB) },
	})

	return &testEnv{e: e, repo: r, gw: gw, events: rec, orders: orders}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) user(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, env.repo.CreateUser(context.Background(), u))
	token, _, err := tokens.NewAccessToken(u.ID, role, time.Hour, jwtSecret)
	require.NoError(t, err)
	return u, token
}

// customer is a USER with a gateway customer and a default card.
func (env *testEnv) customer(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	u, token := env.user(t, email, models.RoleUser)
	cus := "cus_" + email
	require.NoError(t, env.repo.SetStripeCustomerID(context.Background(), u.ID, cus))
	env.gw.SetDefault(cus, "pm_card")
	return u, token
}

func (env *testEnv) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, env.repo.CreateProduct(context.Background(), p))
	return p
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
