package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
)

// RequestRepository handles service request database operations
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new service request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new service request
func (r *RequestRepository) Create(tx *sql.Tx, request *entity.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			house_id, service_type, current_place, scheduled_date,
			completed_date, description, notes, estimated_duration,
			actual_duration, created_by_id, assigned_cleaner_id,
			priority, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`

	args := []interface{}{
		request.HouseID, request.ServiceType, string(request.CurrentPlace),
		request.ScheduledDate, nullTime(request.CompletedDate),
		request.Description, request.Notes, request.EstimatedDuration,
		request.ActualDuration, request.CreatedByID,
		nullInt64(request.AssignedCleanerID), request.Priority,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create service request", zap.Error(err))
		return fmt.Errorf("failed to create service request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	request.Version = 1
	return nil
}

// GetByID retrieves a service request by ID
func (r *RequestRepository) GetByID(id int64) (*entity.ServiceRequest, error) {
	request, err := scanRequest(r.db.QueryRow(requestSelect+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get service request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return request, nil
}

// List retrieves all service requests ordered by scheduled date
func (r *RequestRepository) List() ([]*entity.ServiceRequest, error) {
	return r.query(requestSelect + " ORDER BY scheduled_date ASC")
}

// ListByAssignedCleaner retrieves the requests assigned to a cleaner
func (r *RequestRepository) ListByAssignedCleaner(cleanerID int64) ([]*entity.ServiceRequest, error) {
	return r.query(requestSelect+" WHERE assigned_cleaner_id = ? ORDER BY scheduled_date ASC", cleanerID)
}

// ListAvailableForSelfAssignment retrieves unassigned requests sitting in a
// place the self_assign transition fires from
func (r *RequestRepository) ListAvailableForSelfAssignment() ([]*entity.ServiceRequest, error) {
	return r.query(
		requestSelect+" WHERE assigned_cleaner_id IS NULL AND current_place IN (?, ?) ORDER BY scheduled_date ASC",
		string(workflow.PlaceScheduled), string(workflow.PlaceApproved))
}

// ListByHouse retrieves the requests targeting a house
func (r *RequestRepository) ListByHouse(houseID int64) ([]*entity.ServiceRequest, error) {
	return r.query(requestSelect+" WHERE house_id = ? ORDER BY scheduled_date ASC", houseID)
}

// ListOverlappingAssignments retrieves active requests assigned to a cleaner
// on the same day. Supports the (currently inert) self_assign conflict rule.
func (r *RequestRepository) ListOverlappingAssignments(cleanerID int64, date time.Time) ([]*entity.ServiceRequest, error) {
	day := date.Format("2006-01-02")
	return r.query(
		requestSelect+` WHERE assigned_cleaner_id = ?
			AND date(scheduled_date) = date(?)
			AND current_place NOT IN (?, ?, ?)
			ORDER BY scheduled_date ASC`,
		cleanerID, day,
		string(workflow.PlaceCompleted), string(workflow.PlaceCancelled), string(workflow.PlaceArchived))
}

// Update persists the request's mutable fields with an optimistic version
// check. Returns ErrConcurrencyConflict when the row was modified since it
// was read.
func (r *RequestRepository) Update(tx *sql.Tx, request *entity.ServiceRequest) error {
	query := `
		UPDATE service_requests
		SET house_id = ?, service_type = ?, current_place = ?,
			scheduled_date = ?, completed_date = ?, description = ?,
			notes = ?, estimated_duration = ?, actual_duration = ?,
			assigned_cleaner_id = ?, priority = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	args := []interface{}{
		request.HouseID, request.ServiceType, string(request.CurrentPlace),
		request.ScheduledDate, nullTime(request.CompletedDate),
		request.Description, request.Notes, request.EstimatedDuration,
		request.ActualDuration, nullInt64(request.AssignedCleanerID),
		request.Priority, request.ID, request.Version,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to update service request", zap.Int64("id", request.ID), zap.Error(err))
		return fmt.Errorf("failed to update service request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Stale service request write rejected",
			zap.Int64("id", request.ID),
			zap.Int64("version", request.Version))
		return fmt.Errorf("service request %d: %w", request.ID, ErrConcurrencyConflict)
	}

	request.Version++
	return nil
}

// Delete deletes a service request and its dependent rows
func (r *RequestRepository) Delete(tx *sql.Tx, id int64) error {
	var err error
	if tx != nil {
		_, err = tx.Exec("DELETE FROM service_requests WHERE id = ?", id)
	} else {
		_, err = r.db.Exec("DELETE FROM service_requests WHERE id = ?", id)
	}
	if err != nil {
		r.logger.Error("Failed to delete service request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete service request: %w", err)
	}
	return nil
}

// CountByPlace returns the number of requests per workflow place
func (r *RequestRepository) CountByPlace() (map[workflow.Place]int64, error) {
	rows, err := r.db.Query("SELECT current_place, COUNT(*) FROM service_requests GROUP BY current_place")
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.Place]int64)
	for rows.Next() {
		var place string
		var count int64
		if err := rows.Scan(&place, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[workflow.Place(place)] = count
	}
	return counts, rows.Err()
}

const requestSelect = `
	SELECT id, house_id, service_type, current_place, scheduled_date,
		completed_date, description, notes, estimated_duration,
		actual_duration, created_by_id, assigned_cleaner_id, priority,
		version, created_at, updated_at
	FROM service_requests
`

func (r *RequestRepository) query(query string, args ...interface{}) ([]*entity.ServiceRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query service requests", zap.Error(err))
		return nil, fmt.Errorf("failed to query service requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*entity.ServiceRequest, error) {
	var request entity.ServiceRequest
	var place string
	var completedDate sql.NullTime
	var description, notes sql.NullString
	var assignedCleanerID sql.NullInt64

	err := row.Scan(
		&request.ID,
		&request.HouseID,
		&request.ServiceType,
		&place,
		&request.ScheduledDate,
		&completedDate,
		&description,
		&notes,
		&request.EstimatedDuration,
		&request.ActualDuration,
		&request.CreatedByID,
		&assignedCleanerID,
		&request.Priority,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.CurrentPlace = workflow.Place(place)
	if completedDate.Valid {
		t := completedDate.Time
		request.CompletedDate = &t
	}
	if description.Valid {
		request.Description = description.String
	}
	if notes.Valid {
		request.Notes = notes.String
	}
	if assignedCleanerID.Valid {
		id := assignedCleanerID.Int64
		request.AssignedCleanerID = &id
	}
	return &request, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt64(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
