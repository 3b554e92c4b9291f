package repository

import (
	"database/sql"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"go.uber.org/zap"
)

// TaskRepository handles service task database operations
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new task
func (r *TaskRepository) Create(tx *sql.Tx, task *entity.ServiceTask) error {
	query := `
		INSERT INTO service_tasks (
			request_id, title, description, status, sort_order,
			is_required, completed_at, completion_notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		task.RequestID, task.Title, task.Description, task.Status,
		task.SortOrder, task.IsRequired, nullTime(task.CompletedAt),
		task.CompletionNotes,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create task", zap.Int64("request_id", task.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(id int64) (*entity.ServiceTask, error) {
	task, err := scanTask(r.db.QueryRow(taskSelect+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByRequestID retrieves the tasks of a request in sort order
func (r *TaskRepository) ListByRequestID(requestID int64) ([]*entity.ServiceTask, error) {
	rows, err := r.db.Query(taskSelect+" WHERE request_id = ? ORDER BY sort_order ASC, id ASC", requestID)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entity.ServiceTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Update updates a task
func (r *TaskRepository) Update(tx *sql.Tx, task *entity.ServiceTask) error {
	query := `
		UPDATE service_tasks
		SET title = ?, description = ?, status = ?, sort_order = ?,
			is_required = ?, completed_at = ?, completion_notes = ?
		WHERE id = ?
	`

	args := []interface{}{
		task.Title, task.Description, task.Status, task.SortOrder,
		task.IsRequired, nullTime(task.CompletedAt), task.CompletionNotes,
		task.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to update task", zap.Int64("id", task.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete deletes a task
func (r *TaskRepository) Delete(tx *sql.Tx, id int64) error {
	var err error
	if tx != nil {
		_, err = tx.Exec("DELETE FROM service_tasks WHERE id = ?", id)
	} else {
		_, err = r.db.Exec("DELETE FROM service_tasks WHERE id = ?", id)
	}
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

const taskSelect = `
	SELECT id, request_id, title, description, status, sort_order,
		is_required, completed_at, completion_notes
	FROM service_tasks
`

func scanTask(row rowScanner) (*entity.ServiceTask, error) {
	var task entity.ServiceTask
	var description, completionNotes sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.RequestID,
		&task.Title,
		&description,
		&task.Status,
		&task.SortOrder,
		&task.IsRequired,
		&completedAt,
		&completionNotes,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = description.String
	}
	if completionNotes.Valid {
		task.CompletionNotes = completionNotes.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}
