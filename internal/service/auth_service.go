package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthService coordinates signup, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	validate   *validator.Validate
	bcryptCost int
}

// SignupInput describes the signup payload.
type SignupInput struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// IssuedToken bundles a signed bearer token with its expiry.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLHours),
		validate:   validator.New(),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Signup creates a new end-user account. The role is always forced to
// user; elevated accounts are created by admins only.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*IssuedToken, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid signup payload", validationDetails(err))
	}

	if _, err := s.users.GetByUsernameOrEmail(ctx, input.Username, input.Email); err == nil {
		return nil, apperrors.NewConflict("username or email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("username or email already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}

	return s.issueToken(user.ID)
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*IssuedToken, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issueToken(user.ID)
}

// Profile loads the account behind a principal. The password hash never
// leaves the service layer.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueToken(userID string) (*IssuedToken, error) {
	token, exp, err := s.tokenMgr.GenerateToken(userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &IssuedToken{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}
