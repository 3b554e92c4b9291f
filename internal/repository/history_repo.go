package repository

import (
	"database/sql"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
)

// HistoryRepository handles workflow history database operations. Entries
// are append-only; there are no update or delete operations.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(tx *sql.Tx, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO workflow_history (
			request_id, from_place, to_place, transition, actor_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		entry.RequestID, string(entry.FromPlace), string(entry.ToPlace),
		entry.Transition, entry.ActorID, entry.Timestamp,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create history entry",
			zap.Int64("request_id", entry.RequestID),
			zap.String("transition", entry.Transition),
			zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByRequestID retrieves the audit trail for a request in application order
func (r *HistoryRepository) ListByRequestID(requestID int64) ([]entity.HistoryEntry, error) {
	query := `
		SELECT id, request_id, from_place, to_place, transition, actor_id, timestamp
		FROM workflow_history
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []entity.HistoryEntry
	for rows.Next() {
		var entry entity.HistoryEntry
		var from, to string
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&from,
			&to,
			&entry.Transition,
			&entry.ActorID,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.FromPlace = workflow.Place(from)
		entry.ToPlace = workflow.Place(to)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountByRequestID returns the number of history entries for a request
func (r *HistoryRepository) CountByRequestID(requestID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM workflow_history WHERE request_id = ?", requestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}
