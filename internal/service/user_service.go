package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// UserService manages accounts and their roles.
type UserService struct {
	guard
	users      repository.UserRepository
	bcryptCost int
	clock      func() time.Time
}

// UserDependencies wires the user service.
type UserDependencies struct {
	Gate       *access.Gate
	Logger     *zap.Logger
	UserRepo   repository.UserRepository
	BcryptCost int
	Clock      func() time.Time
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &UserService{
		guard:      guard{gate: deps.Gate, logger: logger},
		users:      deps.UserRepo,
		bcryptCost: deps.BcryptCost,
		clock:      clock,
	}
}

// CreateUserInput defines fields for a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// ListUsersInput carries listing filters.
type ListUsersInput struct {
	Role   string
	Active *bool
	Limit  int
	Offset int
}

// List returns accounts matching the filters.
func (s *UserService) List(ctx context.Context, principal domain.Principal, input ListUsersInput) ([]domain.User, error) {
	if err := s.authorize(principal, access.ActionViewUsers, nil, ""); err != nil {
		return nil, err
	}
	filter := repository.UserFilter{Active: input.Active, Limit: input.Limit, Offset: input.Offset}
	if input.Role != "" {
		role, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
		}
		filter.Role = &role
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Create registers a new account.
func (s *UserService) Create(ctx context.Context, principal domain.Principal, input CreateUserInput) (*domain.User, error) {
	if err := s.authorize(principal, access.ActionCreateUser, nil, ""); err != nil {
		return nil, err
	}
	return s.create(ctx, input)
}

// EnsureBootstrapAdmin creates the first admin when no account uses email.
// It bypasses the gate and is only called at start-up.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password string) (*domain.User, bool, error) {
	if strings.TrimSpace(email) == "" {
		return nil, false, nil
	}
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.MapError(err)
	}
	user, err := s.create(ctx, CreateUserInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID))
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength), map[string]any{"field": "password"})
	}
	role := domain.RoleOperator
	if input.Role != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
		}
		role = parsed
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.clock()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ElevateRole changes another account's role.
func (s *UserService) ElevateRole(ctx context.Context, principal domain.Principal, userID, rawRole string) (*domain.User, error) {
	if err := s.authorize(principal, access.ActionElevateRole, nil, userID); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": rawRole})
	}
	if userID == principal.ID {
		return nil, apperrors.NewConflict("cannot change your own role", map[string]any{"user_id": userID})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", "user_id", userID)
	}
	user.Role = role
	user.UpdatedAt = s.clock()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "user", "user_id", userID)
	}
	return user, nil
}

// Remove deactivates an account. Its requests and history stay intact.
func (s *UserService) Remove(ctx context.Context, principal domain.Principal, userID string) (*domain.User, error) {
	if err := s.authorize(principal, access.ActionRemoveUser, nil, userID); err != nil {
		return nil, err
	}
	if userID == principal.ID {
		return nil, apperrors.NewConflict("cannot remove your own account", map[string]any{"user_id": userID})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", "user_id", userID)
	}
	if !user.Active {
		return user, nil
	}
	user.Active = false
	user.UpdatedAt = s.clock()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "user", "user_id", userID)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
