package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInsufficientRole = errors.New("insufficient role")
)

type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

// Authorize reports whether the credential carries one of the allowed roles.
func Authorize(claims *tokens.AccessClaims, roles ...string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if !slices.Contains(roles, claims.Role) {
		return ErrInsufficientRole
	}
	return nil
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "auth.bearer")

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
		}

		scheme, raw, ok := strings.Cut(header, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Malformed token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			l.Debugw("token_rejected", "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "Invalid token")
		}

		setUserContext(c, claims)
		return next(c)
	}
}

// RequireRole authenticates the request and then checks the role explicitly.
func (m *BearerAuth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(func(c echo.Context) error {
			if err := Authorize(Claims(c), roles...); err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden: Insufficient role")
			}
			return next(c)
		})
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
}

func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(ctxClaims).(*tokens.AccessClaims)
	return claims
}

func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(ctxUserID).(uint)
	if !ok || id == 0 {
		return 0, ErrUnauthenticated
	}
	return id, nil
}
