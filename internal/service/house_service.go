package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
)

// HouseService manages properties
type HouseService interface {
	Create(ctx context.Context, principal workflow.Principal, house *entity.House) error
	Get(ctx context.Context, principal workflow.Principal, id int64) (*entity.House, error)
	List(ctx context.Context, principal workflow.Principal) ([]*entity.House, error)
	Update(ctx context.Context, principal workflow.Principal, house *entity.House) error
	Delete(ctx context.Context, principal workflow.Principal, id int64) error
}

type houseService struct {
	tx     TxRunner
	houses HouseStore
	roles  workflow.RoleChecker
	logger *zap.Logger
}

// NewHouseService creates a new HouseService
func NewHouseService(tx TxRunner, houses HouseStore, roles workflow.RoleChecker, logger *zap.Logger) HouseService {
	return &houseService{tx: tx, houses: houses, roles: roles, logger: logger}
}

// Create creates a house. Manager only.
func (s *houseService) Create(ctx context.Context, principal workflow.Principal, house *entity.House) error {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return fmt.Errorf("create house: %w", ErrAccessDenied)
	}
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.houses.Create(tx, house)
	})
	if err != nil {
		return err
	}
	s.logger.Info("House created", zap.Int64("id", house.ID), zap.String("name", house.Name))
	return nil
}

// Get returns a house. Managers see everything, owners their own houses.
func (s *houseService) Get(ctx context.Context, principal workflow.Principal, id int64) (*entity.House, error) {
	house, err := s.houses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if house == nil {
		return nil, fmt.Errorf("house %d: %w", id, ErrNotFound)
	}
	if s.roles.IsGranted(principal, workflow.RoleManager) {
		return house, nil
	}
	if house.OwnerID == principal.PrincipalID() {
		return house, nil
	}
	return nil, fmt.Errorf("house %d: %w", id, ErrAccessDenied)
}

// List returns the houses visible to the principal
func (s *houseService) List(ctx context.Context, principal workflow.Principal) ([]*entity.House, error) {
	if s.roles.IsGranted(principal, workflow.RoleManager) {
		return s.houses.List()
	}
	return s.houses.ListByOwner(principal.PrincipalID())
}

// Update updates a house. Manager only.
func (s *houseService) Update(ctx context.Context, principal workflow.Principal, house *entity.House) error {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return fmt.Errorf("update house: %w", ErrAccessDenied)
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.houses.Update(tx, house)
	})
}

// Delete deletes a house. Admin only.
func (s *houseService) Delete(ctx context.Context, principal workflow.Principal, id int64) error {
	if !s.roles.IsGranted(principal, workflow.RoleAdmin) {
		return fmt.Errorf("delete house: %w", ErrAccessDenied)
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.houses.Delete(tx, id)
	})
}
