package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type PaymentMethodHTTP struct {
	Svc *service.PaymentMethodService
}

type addPaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var paymentMethodMessages = map[error]string{
	service.ErrNotFound:  "Payment method not found",
	service.ErrConflict:  "Payment method already added",
	service.ErrForbidden: "Forbidden",
}

// ListPaymentMethods godoc
// @Summary List the caller's saved payment methods
// @Tags payment-methods
// @Produce json
// @Success 200 {array} models.PaymentMethod
// @Security BearerAuth
// @Router /users/me/payment-methods [get]
func (h *PaymentMethodHTTP) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_method.list")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	pms, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(c, l, "list_payment_methods_error", err, nil)
	}
	return c.JSON(http.StatusOK, pms)
}

// AddPaymentMethod godoc
// @Summary Attach a payment method token and make it the default
// @Tags payment-methods
// @Accept json
// @Produce json
// @Param body body addPaymentMethodRequest true "Gateway payment method token"
// @Success 201 {object} messageResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /users/me/payment-methods [post]
func (h *PaymentMethodHTTP) AddPaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_method.add")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	var req addPaymentMethodRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "add_payment_method_error", bodyErrorMessage(err), err)
	}

	pm, err := h.Svc.Attach(ctx, userID, req.PaymentMethodID)
	if err != nil {
		return fail(c, l, "add_payment_method_error", err, paymentMethodMessages)
	}

	l.Infow("add_payment_method_success", "payment_method_id", pm.ID)
	return c.JSON(http.StatusCreated, messageResponse{Message: "Payment method added successfully"})
}

// DeletePaymentMethod godoc
// @Summary Remove a saved payment method
// @Tags payment-methods
// @Produce json
// @Param id path int true "Payment method ID"
// @Success 200 {object} messageResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /users/me/payment-methods/{id} [delete]
func (h *PaymentMethodHTTP) DeletePaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_method.delete")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_payment_method_error", "Invalid payment method id", err)
	}

	if err := h.Svc.Detach(ctx, userID, id); err != nil {
		return fail(c, l, "delete_payment_method_error", err, paymentMethodMessages)
	}

	l.Infow("delete_payment_method_success", "payment_method_id", id)
	return c.JSON(http.StatusOK, messageResponse{Message: "Payment method deleted successfully"})
}
