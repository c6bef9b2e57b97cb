package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errEmptyBody = errors.New("request body is missing")

// bindBody rejects an empty body before binding, so a missing payload is
// reported as such instead of as a zero-valued request.
func bindBody(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 || c.Request().Body == nil || c.Request().Body == http.NoBody {
		return errEmptyBody
	}
	return (&echo.DefaultBinder{}).BindBody(c, dst)
}

func bodyErrorMessage(err error) string {
	if errors.Is(err, errEmptyBody) {
		return "Request body is missing"
	}
	return "invalid body"
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(id), nil
}
