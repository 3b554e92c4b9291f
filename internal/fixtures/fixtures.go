// Package fixtures seeds the database with a demo dataset for local
// development: an admin, a manager, two cleaners, two owners, four houses
// and five service requests in assorted workflow places.
package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/repository"
	"github.com/brooklane/housecare/pkg/database"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Loader seeds demo data
type Loader struct {
	db       *database.DB
	users    *repository.UserRepository
	houses   *repository.HouseRepository
	requests *repository.RequestRepository
	logger   *zap.Logger
}

// NewLoader creates a fixture loader
func NewLoader(
	db *database.DB,
	users *repository.UserRepository,
	houses *repository.HouseRepository,
	requests *repository.RequestRepository,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		db:       db,
		users:    users,
		houses:   houses,
		requests: requests,
		logger:   logger,
	}
}

// Load seeds the demo dataset. Idempotent: it is a no-op when users exist.
func (l *Loader) Load(ctx context.Context) error {
	count, err := l.users.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		l.logger.Info("Fixtures skipped, users already present", zap.Int64("count", count))
		return nil
	}

	return l.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := l.createUser(tx, "admin@example.com", "admin123", []string{workflow.RoleAdmin}, "System", "Administrator", "+1234567890"); err != nil {
			return err
		}
		manager, err := l.createUser(tx, "manager@example.com", "manager123", []string{workflow.RoleManager}, "John", "Manager", "+1234567891")
		if err != nil {
			return err
		}
		cleaner1, err := l.createUser(tx, "cleaner1@example.com", "cleaner123", []string{workflow.RoleCleaner}, "Jane", "Smith", "+1234567892")
		if err != nil {
			return err
		}
		cleaner2, err := l.createUser(tx, "cleaner2@example.com", "cleaner123", []string{workflow.RoleCleaner}, "Mike", "Johnson", "+1234567893")
		if err != nil {
			return err
		}
		owner1, err := l.createUser(tx, "owner1@example.com", "owner123", []string{workflow.RoleOwner}, "Robert", "Brown", "+1234567894")
		if err != nil {
			return err
		}
		owner2, err := l.createUser(tx, "owner2@example.com", "owner123", []string{workflow.RoleOwner}, "Sarah", "Williams", "+1234567895")
		if err != nil {
			return err
		}

		house1, err := l.createHouse(tx, &entity.House{
			Name: "Seaside Villa", Address: "123 Ocean Drive", City: "Miami Beach",
			PostalCode: "33139", Country: "USA",
			Description: "Beautiful beachfront villa with stunning ocean views.",
			Bedrooms:    4, Bathrooms: 3, SquareMeters: 250,
			OwnerID: owner1.ID, IsActive: true,
		})
		if err != nil {
			return err
		}
		house2, err := l.createHouse(tx, &entity.House{
			Name: "Mountain Retreat", Address: "456 Alpine Road", City: "Aspen",
			PostalCode: "81611", Country: "USA",
			Description: "Cozy mountain cabin perfect for winter getaways.",
			Bedrooms:    3, Bathrooms: 2, SquareMeters: 180,
			OwnerID: owner1.ID, IsActive: true,
		})
		if err != nil {
			return err
		}
		house3, err := l.createHouse(tx, &entity.House{
			Name: "City Loft", Address: "789 Urban Street, Apt 12A", City: "New York",
			PostalCode: "10001", Country: "USA",
			Description: "Modern loft in the heart of Manhattan.",
			Bedrooms:    2, Bathrooms: 2, SquareMeters: 120,
			OwnerID: owner2.ID, IsActive: true,
		})
		if err != nil {
			return err
		}
		house4, err := l.createHouse(tx, &entity.House{
			Name: "Lakeside Cottage", Address: "321 Waterfront Lane", City: "Lake Tahoe",
			PostalCode: "96150", Country: "USA",
			Description: "Charming cottage with private lake access.",
			Bedrooms:    3, Bathrooms: 2, SquareMeters: 160,
			OwnerID: owner2.ID, IsActive: true,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		demoRequests := []*entity.ServiceRequest{
			{
				HouseID: house1.ID, ServiceType: entity.ServiceTypeCleaning,
				CurrentPlace:      workflow.PlaceScheduled,
				ScheduledDate:     now.AddDate(0, 0, 2),
				Description:       "Standard cleaning before guest arrival",
				EstimatedDuration: 3.5, CreatedByID: manager.ID,
				AssignedCleanerID: &cleaner1.ID, Priority: entity.PriorityNormal,
			},
			{
				HouseID: house1.ID, ServiceType: entity.ServiceTypeDeepCleaning,
				CurrentPlace:      workflow.PlaceAssigned,
				ScheduledDate:     now.AddDate(0, 0, 5),
				Description:       "Deep cleaning after long-term rental",
				EstimatedDuration: 6.0, CreatedByID: manager.ID,
				AssignedCleanerID: &cleaner2.ID, Priority: entity.PriorityHigh,
			},
			{
				HouseID: house2.ID, ServiceType: entity.ServiceTypeMaintenance,
				CurrentPlace:      workflow.PlaceApproved,
				ScheduledDate:     now.AddDate(0, 0, 1),
				Description:       "Check heating system before winter season",
				EstimatedDuration: 2.0, CreatedByID: manager.ID,
				Priority: entity.PriorityUrgent,
			},
			{
				HouseID: house3.ID, ServiceType: entity.ServiceTypeInspection,
				CurrentPlace:      workflow.PlaceInProgress,
				ScheduledDate:     now.AddDate(0, 0, 7),
				Description:       "Monthly property inspection",
				EstimatedDuration: 1.5, CreatedByID: manager.ID,
				AssignedCleanerID: &cleaner1.ID, Priority: entity.PriorityNormal,
			},
			{
				HouseID: house4.ID, ServiceType: entity.ServiceTypePoolMaintenance,
				CurrentPlace:      workflow.PlaceScheduled,
				ScheduledDate:     now.AddDate(0, 0, 3),
				Description:       "Weekly pool cleaning and chemical balance",
				EstimatedDuration: 2.5, CreatedByID: manager.ID,
				AssignedCleanerID: &cleaner2.ID, Priority: entity.PriorityNormal,
			},
		}
		for _, request := range demoRequests {
			request.CreatedAt = now
			request.UpdatedAt = now
			if err := l.requests.Create(tx, request); err != nil {
				return err
			}
		}

		l.logger.Info("Fixtures loaded",
			zap.Int("users", 6),
			zap.Int("houses", 4),
			zap.Int("requests", len(demoRequests)))
		return nil
	})
}

func (l *Loader) createUser(tx *sql.Tx, email, password string, roles []string, firstName, lastName, phone string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
	}
	user := &entity.User{
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		IsActive:     true,
	}
	if err := l.users.Create(tx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (l *Loader) createHouse(tx *sql.Tx, house *entity.House) (*entity.House, error) {
	if err := l.houses.Create(tx, house); err != nil {
		return nil, err
	}
	return house, nil
}
