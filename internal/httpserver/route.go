package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler          *AuthHTTP
	ProductHandler       *ProductHTTP
	OrderHandler         *OrderHTTP
	PaymentMethodHandler *PaymentMethodHTTP
	SalesHandler         *SalesHTTP

	JWTSecret []byte
	Metrics   *metrics.Metrics
	// Ready reports whether dependencies (the database) can serve traffic.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.GET("/api-docs/*", echo.WrapHandler(httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json"))))

	authMW := middleware.NewBearerAuth(d.JWTSecret)

	auth := e.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/signup-admin", d.AuthHandler.SignupAdmin)
	auth.POST("/login", d.AuthHandler.Login)

	users := e.Group("/users")
	users.GET("/products", d.ProductHandler.ListProducts, authMW.RequireRole(models.RoleUser, models.RoleAdmin))

	customer := users.Group("", authMW.RequireRole(models.RoleUser))
	customer.POST("/orders", d.OrderHandler.PlaceOrder)
	customer.GET("/me/orders", d.OrderHandler.ListMyOrders)
	customer.GET("/me/payment-methods", d.PaymentMethodHandler.ListPaymentMethods)
	customer.POST("/me/payment-methods", d.PaymentMethodHandler.AddPaymentMethod)
	customer.DELETE("/me/payment-methods/:id", d.PaymentMethodHandler.DeletePaymentMethod)

	admin := e.Group("/admin", authMW.RequireRole(models.RoleAdmin))
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PUT("/products/:id", d.ProductHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/sales", d.SalesHandler.SalesReport)
}
