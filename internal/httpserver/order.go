package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/util"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

type placeOrderResponse struct {
	Message         string          `json:"message"`
	OrderID         uint            `json:"orderId"`
	Total           decimal.Decimal `json:"total"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Replayed        bool            `json:"replayed,omitempty"`
}

// PlaceOrder godoc
// @Summary Place an order and charge the default payment method
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Makes retries return the first result without charging again"
// @Param body body service.PlaceOrderInput true "Order lines"
// @Success 201 {object} placeOrderResponse
// @Success 200 {object} placeOrderResponse "replayed"
// @Failure 400 {object} validationResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} persistenceFailedResponse
// @Failure 502 {object} errorResponse
// @Security BearerAuth
// @Router /users/orders [post]
func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	userID, err := middleware.UserID(c)
	if err != nil {
		l.Warnw("place_order_error", "status", 401, "reason", "no user in context", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	var req service.PlaceOrderInput
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "place_order_error", bodyErrorMessage(err), err)
	}
	if key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey)); key != "" {
		req.IdempotencyKey = key
	}

	res, err := h.Svc.PlaceOrder(ctx, userID, req)
	if err != nil {
		return fail(c, l, "place_order_error", err, map[error]string{
			service.ErrConflict: "A request with this Idempotency-Key is already in progress",
		})
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, placeOrderResponse{
		Message:         "Order placed successfully",
		OrderID:         res.OrderID,
		Total:           res.Total,
		PaymentIntentID: res.PaymentIntentID,
		Replayed:        res.Replayed,
	})
}

// ListMyOrders godoc
// @Summary List the caller's orders, newest first
// @Tags orders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} orderPage
// @Security BearerAuth
// @Router /users/me/orders [get]
func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_my_orders")

	userID, err := middleware.UserID(c)
	if err != nil {
		l.Warnw("list_orders_error", "status", 401, "reason", "no user in context", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.ListMine(ctx, userID, page, limit)
	if err != nil {
		return fail(c, l, "list_orders_error", err, map[error]string{
			service.ErrInternal: "Failed to fetch orders",
		})
	}
	return c.JSON(http.StatusOK, res)
}

type orderPage service.Page[models.Order]
