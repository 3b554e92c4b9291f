package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
)

// Store interfaces narrow the concrete repositories to what the services
// need; tests substitute in-memory fakes.

// RequestStore persists service requests
type RequestStore interface {
	Create(tx *sql.Tx, request *entity.ServiceRequest) error
	GetByID(id int64) (*entity.ServiceRequest, error)
	List() ([]*entity.ServiceRequest, error)
	ListByAssignedCleaner(cleanerID int64) ([]*entity.ServiceRequest, error)
	ListAvailableForSelfAssignment() ([]*entity.ServiceRequest, error)
	ListByHouse(houseID int64) ([]*entity.ServiceRequest, error)
	ListOverlappingAssignments(cleanerID int64, date time.Time) ([]*entity.ServiceRequest, error)
	Update(tx *sql.Tx, request *entity.ServiceRequest) error
	Delete(tx *sql.Tx, id int64) error
	CountByPlace() (map[workflow.Place]int64, error)
}

// HistoryStore persists the workflow audit trail
type HistoryStore interface {
	Create(tx *sql.Tx, entry *entity.HistoryEntry) error
	ListByRequestID(requestID int64) ([]entity.HistoryEntry, error)
	CountByRequestID(requestID int64) (int64, error)
}

// UserStore persists users
type UserStore interface {
	Create(tx *sql.Tx, user *entity.User) error
	GetByID(id int64) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	List() ([]*entity.User, error)
	Update(tx *sql.Tx, user *entity.User) error
}

// HouseStore persists houses
type HouseStore interface {
	Create(tx *sql.Tx, house *entity.House) error
	GetByID(id int64) (*entity.House, error)
	List() ([]*entity.House, error)
	ListByOwner(ownerID int64) ([]*entity.House, error)
	Update(tx *sql.Tx, house *entity.House) error
	Delete(tx *sql.Tx, id int64) error
}

// TaskStore persists service tasks
type TaskStore interface {
	Create(tx *sql.Tx, task *entity.ServiceTask) error
	GetByID(id int64) (*entity.ServiceTask, error)
	ListByRequestID(requestID int64) ([]*entity.ServiceTask, error)
	Update(tx *sql.Tx, task *entity.ServiceTask) error
	Delete(tx *sql.Tx, id int64) error
}

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}
