package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/orders", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, c, err
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	valid, _, err := tokens.NewAccessToken(3, "USER", time.Hour, secret)
	require.NoError(t, err)

	auth := NewBearerAuth(secret)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing header", header: "", code: http.StatusUnauthorized},
		{name: "no token part", header: "Bearer", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", code: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", code: http.StatusForbidden},
		{name: "valid", header: "Bearer " + valid, code: http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, c, err := run(t, auth.RequireAuth, tt.header)
			if tt.code == http.StatusNoContent {
				require.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, rec.Code)

				id, idErr := UserID(c)
				require.NoError(t, idErr)
				assert.Equal(t, uint(3), id)
				return
			}
			assert.Equal(t, tt.code, httpCode(t, err))
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin, _, err := tokens.NewAccessToken(1, "ADMIN", time.Hour, secret)
	require.NoError(t, err)
	user, _, err := tokens.NewAccessToken(2, "USER", time.Hour, secret)
	require.NoError(t, err)

	auth := NewBearerAuth(secret)

	_, _, err = run(t, auth.RequireRole("USER"), "Bearer "+admin)
	assert.Equal(t, http.StatusForbidden, httpCode(t, err))

	rec, _, err := run(t, auth.RequireRole("USER"), "Bearer "+user)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _, err = run(t, auth.RequireRole("USER", "ADMIN"), "Bearer "+admin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Authorize(nil, "USER"), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(&tokens.AccessClaims{Role: "ADMIN"}, "USER"), ErrInsufficientRole)
	assert.NoError(t, Authorize(&tokens.AccessClaims{Role: "USER"}, "USER"))
}
