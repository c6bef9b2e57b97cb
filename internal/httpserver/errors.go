package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront/internal/service"
)

const codePersistenceFailedAfterCharge = "PERSISTENCE_FAILED_AFTER_CHARGE"

type errorResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors"`
}

type productNotFoundResponse struct {
	Message    string `json:"message"`
	ProductIDs []uint `json:"productIds"`
}

type persistenceFailedResponse struct {
	Message         string `json:"message"`
	Code            string `json:"code"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type statusMapping struct {
	target  error
	status  int
	message string
}

// first match wins; the more specific sentinels come first
var statusTable = []statusMapping{
	{service.ErrPersistenceFailedAfterCharge, http.StatusInternalServerError, "Payment was captured but the order could not be saved"},
	{service.ErrPaymentUnknown, http.StatusBadGateway, "Payment outcome unknown"},
	{service.ErrNoPaymentMethod, http.StatusBadRequest, "User has no payment method"},
	{service.ErrProductNotFound, http.StatusBadRequest, "One or more products not found"},
	{service.ErrNoDefaultPaymentMethod, http.StatusBadRequest, "No default payment method found"},
	{service.ErrPaymentFailed, http.StatusBadRequest, "Payment failed"},
	{service.ErrPaymentGateway, http.StatusBadRequest, "Payment provider rejected the request"},
	{service.ErrValidation, http.StatusBadRequest, "Validation failed"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{service.ErrConflict, http.StatusConflict, "Conflict"},
}

func statusFor(err error) (int, string) {
	for _, m := range statusTable {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// fail logs err and writes the response for it. messages overrides the
// default text per sentinel for the calling handler.
func fail(c echo.Context, l *zap.SugaredLogger, event string, err error, messages map[error]string) error {
	status, msg := statusFor(err)
	for target, m := range messages {
		if errors.Is(err, target) {
			msg = m
			break
		}
	}

	if status >= http.StatusInternalServerError {
		l.Errorw(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warnw(event, "status", status, "reason", msg, "error", err)
	}

	var (
		verr *service.ValidationError
		pnf  *service.ProductNotFoundError
		perr *service.PersistenceFailedError
	)
	switch {
	case errors.As(err, &perr):
		return c.JSON(status, persistenceFailedResponse{
			Message:         msg,
			Code:            codePersistenceFailedAfterCharge,
			PaymentIntentID: perr.PaymentIntentID,
		})
	case errors.As(err, &verr):
		return c.JSON(status, validationResponse{Message: msg, Errors: verr.Fields})
	case errors.As(err, &pnf):
		return c.JSON(status, productNotFoundResponse{Message: msg, ProductIDs: pnf.Missing})
	}
	// gateway and store details stay in the log
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *zap.SugaredLogger, event, msg string, err error) error {
	l.Warnw(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
