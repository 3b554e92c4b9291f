package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CreateUserInput carries the fields for a new user account
type CreateUserInput struct {
	Email     string
	Password  string
	Roles     []string
	FirstName string
	LastName  string
	Phone     string
}

// UserService manages user accounts
type UserService interface {
	Create(ctx context.Context, principal workflow.Principal, input CreateUserInput) (*entity.User, error)
	Get(ctx context.Context, principal workflow.Principal, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, principal workflow.Principal) ([]*entity.User, error)
	Update(ctx context.Context, principal workflow.Principal, user *entity.User) error
}

type userService struct {
	tx     TxRunner
	users  UserStore
	roles  workflow.RoleChecker
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(tx TxRunner, users UserStore, roles workflow.RoleChecker, logger *zap.Logger) UserService {
	return &userService{tx: tx, users: users, roles: roles, logger: logger}
}

// Create creates a user account. Admin only.
func (s *userService) Create(ctx context.Context, principal workflow.Principal, input CreateUserInput) (*entity.User, error) {
	if !s.roles.IsGranted(principal, workflow.RoleAdmin) {
		return nil, fmt.Errorf("create user: %w", ErrAccessDenied)
	}

	existing, err := s.users.GetByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already exists", input.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Roles:        input.Roles,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		IsActive:     true,
	}

	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.users.Create(tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.Int64("id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Get returns a user by id. Manager only, except for the principal's own
// account.
func (s *userService) Get(ctx context.Context, principal workflow.Principal, id int64) (*entity.User, error) {
	if id != principal.PrincipalID() && !s.roles.IsGranted(principal, workflow.RoleManager) {
		return nil, fmt.Errorf("get user: %w", ErrAccessDenied)
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, nil
}

// GetByEmail returns a user by email. Used by the identity middleware.
func (s *userService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return user, nil
}

// List returns all users. Manager only.
func (s *userService) List(ctx context.Context, principal workflow.Principal) ([]*entity.User, error) {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return nil, fmt.Errorf("list users: %w", ErrAccessDenied)
	}
	return s.users.List()
}

// Update updates a user's profile and roles. Admin only.
func (s *userService) Update(ctx context.Context, principal workflow.Principal, user *entity.User) error {
	if !s.roles.IsGranted(principal, workflow.RoleAdmin) {
		return fmt.Errorf("update user: %w", ErrAccessDenied)
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.users.Update(tx, user)
	})
}
