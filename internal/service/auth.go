package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const DefaultTokenTTL = time.Hour

type AuthService struct {
	Users     repo.UserRepository
	JWTSecret []byte
	TokenTTL  time.Duration
	// AdminSignup gates SignupAdmin.
	AdminSignup bool
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Role        string
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	return s.register(ctx, email, password, models.RoleUser)
}

func (s *AuthService) SignupAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if !s.AdminSignup {
		return nil, fmt.Errorf("%w: admin signup is disabled", ErrForbidden)
	}
	return s.register(ctx, email, password, models.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, email, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "role", role)

	email, err := ValidateCredentials(email, password, true)
	if err != nil {
		return nil, err
	}

	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup user: %v", ErrInternal, err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Errorw("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}

	user := &models.User{Email: email, PasswordHash: pwHash, Role: role}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrInternal, err)
	}

	l.Infow("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email, err := ValidateCredentials(email, password, false)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warnw("login failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: lookup user: %v", ErrInternal, err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warnw("login failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	token, exp, err := tokens.NewAccessToken(user.ID, user.Role, ttl, s.JWTSecret)
	if err != nil {
		l.Errorw("login failed", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: sign token: %v", ErrInternal, err)
	}

	return &LoginResult{AccessToken: token, ExpiresAt: exp, Role: user.Role}, nil
}
