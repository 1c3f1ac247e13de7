package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// UserService covers admin user management.
type UserService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	validate   *validator.Validate
	bcryptCost int
}

// CreateUserInput describes the admin user-creation payload.
type CreateUserInput struct {
	Username        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	Role            string `validate:"required,oneof=user support admin"`
	SupportCategory string `validate:"omitempty,oneof=HR Hardware Software Access"`
}

// UpdateUserInput describes the admin user-update payload; nil fields
// are left untouched.
type UpdateUserInput struct {
	Email           *string `validate:"omitempty,email"`
	Role            *string `validate:"omitempty,oneof=user support admin"`
	SupportCategory *string `validate:"omitempty,oneof=HR Hardware Software Access"`
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, users repository.UserRepository, tickets repository.TicketRepository) *UserService {
	return &UserService{
		users:      users,
		tickets:    tickets,
		validate:   validator.New(),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Create adds an account with any role. A support account requires a
// support category; other roles never carry one.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid user payload", validationDetails(err))
	}

	role := domain.Role(input.Role)
	var category *domain.SupportCategory
	if role == domain.RoleSupport {
		if input.SupportCategory == "" {
			return nil, apperrors.NewValidationError("support category is required for support role", nil)
		}
		c := domain.SupportCategory(input.SupportCategory)
		category = &c
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
		Username:        input.Username,
		Email:           input.Email,
		PasswordHash:    hash,
		Role:            role,
		SupportCategory: category,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("username or email already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update edits email, role and support category. Moving an account off
// the support role drops its category, keeping the invariant that a
// category exists only on support accounts.
func (s *UserService) Update(ctx context.Context, userID string, input UpdateUserInput) (*domain.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid user payload", validationDetails(err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = domain.Role(*input.Role)
	}
	if input.SupportCategory != nil {
		c := domain.SupportCategory(*input.SupportCategory)
		user.SupportCategory = &c
	}
	if user.Role != domain.RoleSupport {
		user.SupportCategory = nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes an account and nulls every ticket assignment that
// referenced it. An admin cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.MapError(err)
	}
	if err := s.tickets.ClearAssignee(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
