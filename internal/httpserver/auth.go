package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  uint   `json:"userId"`
}

type loginResponse struct {
	Token string `json:"token"`
}

var signupMessages = map[error]string{service.ErrConflict: "User already exists"}

// Signup godoc
// @Summary Register a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "Credentials"
// @Success 201 {object} signupResponse
// @Failure 400 {object} validationResponse
// @Failure 409 {object} errorResponse
// @Router /auth/signup [post]
func (h *AuthHTTP) Signup(c echo.Context) error {
	return h.signup(c, "auth.signup", h.Svc.Signup)
}

// SignupAdmin godoc
// @Summary Register an admin account (only when enabled by configuration)
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "Credentials"
// @Success 201 {object} signupResponse
// @Failure 400 {object} validationResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /auth/signup-admin [post]
func (h *AuthHTTP) SignupAdmin(c echo.Context) error {
	return h.signup(c, "auth.signup_admin", h.Svc.SignupAdmin)
}

func (h *AuthHTTP) signup(c echo.Context, name string, register func(ctx context.Context, email, password string) (*models.User, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", name)

	var req credentialsRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "signup_error", bodyErrorMessage(err), err)
	}

	user, err := register(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, l, "signup_error", err, signupMessages)
	}

	l.Infow("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, signupResponse{Message: "User created", UserID: user.ID})
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "Credentials"
// @Success 200 {object} loginResponse
// @Failure 400 {object} validationResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req credentialsRequest
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "login_error", bodyErrorMessage(err), err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, l, "login_error", err, nil)
	}

	return c.JSON(http.StatusOK, loginResponse{Token: res.AccessToken})
}
