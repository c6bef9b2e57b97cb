package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type SalesHTTP struct {
	Svc *service.ReportService
}

// SalesReport godoc
// @Summary Paginated sales report
// @Tags admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Param sortBy query string false "createdAt or total" default(createdAt)
// @Param order query string false "asc or desc" default(desc)
// @Param from query string false "Lower bound on createdAt (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Upper bound on createdAt (RFC3339 or YYYY-MM-DD)"
// @Param user_name query string false "Case-insensitive substring of the customer email"
// @Success 200 {object} service.SalesReport
// @Failure 400 {object} validationResponse
// @Security BearerAuth
// @Router /admin/sales [get]
func (h *SalesHTTP) SalesReport(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.sales_report")

	q := service.SalesQuery{
		Page:     queryInt(c, "page", util.DefaultPage),
		Limit:    queryInt(c, "limit", util.DefaultPageSize),
		SortBy:   c.QueryParam("sortBy"),
		Order:    c.QueryParam("order"),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		UserName: c.QueryParam("user_name"),
	}

	report, err := h.Svc.Sales(ctx, q)
	if err != nil {
		return fail(c, l, "sales_report_error", err, map[error]string{
			service.ErrValidation: "Invalid query parameters",
		})
	}
	return c.JSON(http.StatusOK, report)
}

// queryInt returns def when the parameter is absent and -1 when it is not a
// number, so validation reports it instead of silently using the default.
func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	return util.ParseIntDefault(v, -1)
}
