package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
)

// TaskService manages the checklist items of a service request
type TaskService interface {
	Create(ctx context.Context, principal workflow.Principal, requestID int64, task *entity.ServiceTask) error
	ListByRequest(ctx context.Context, principal workflow.Principal, requestID int64) ([]*entity.ServiceTask, error)
	UpdateStatus(ctx context.Context, principal workflow.Principal, taskID int64, status, completionNotes string) (*entity.ServiceTask, error)
	Delete(ctx context.Context, principal workflow.Principal, taskID int64) error
}

type taskService struct {
	tx       TxRunner
	tasks    TaskStore
	requests RequestStore
	roles    workflow.RoleChecker
	access   *AccessPolicy
	now      func() time.Time
	logger   *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(tx TxRunner, tasks TaskStore, requests RequestStore, roles workflow.RoleChecker, access *AccessPolicy, logger *zap.Logger) TaskService {
	return &taskService{
		tx:       tx,
		tasks:    tasks,
		requests: requests,
		roles:    roles,
		access:   access,
		now:      time.Now,
		logger:   logger,
	}
}

// Create adds a checklist item to a request. Manager only.
func (s *taskService) Create(ctx context.Context, principal workflow.Principal, requestID int64, task *entity.ServiceTask) error {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return fmt.Errorf("create task: %w", ErrAccessDenied)
	}
	if _, err := s.loadRequest(principal, requestID); err != nil {
		return err
	}

	task.RequestID = requestID
	if task.Status == "" {
		task.Status = entity.TaskStatusPending
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.tasks.Create(tx, task)
	})
}

// ListByRequest returns the checklist of a request the principal may view
func (s *taskService) ListByRequest(ctx context.Context, principal workflow.Principal, requestID int64) ([]*entity.ServiceTask, error) {
	if _, err := s.loadRequest(principal, requestID); err != nil {
		return nil, err
	}
	return s.tasks.ListByRequestID(requestID)
}

// UpdateStatus moves a checklist item to a new status. Managers always;
// cleaners only on requests assigned to them.
func (s *taskService) UpdateStatus(ctx context.Context, principal workflow.Principal, taskID int64, status, completionNotes string) (*entity.ServiceTask, error) {
	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}

	request, err := s.loadRequest(principal, task.RequestID)
	if err != nil {
		return nil, err
	}
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		if id, ok := request.AssignedTo(); !ok || id != principal.PrincipalID() {
			return nil, fmt.Errorf("task %d: %w", taskID, ErrAccessDenied)
		}
	}

	task.Status = status
	task.CompletionNotes = completionNotes
	if status == entity.TaskStatusCompleted && task.CompletedAt == nil {
		now := s.now()
		task.CompletedAt = &now
	}

	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.tasks.Update(tx, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task status updated",
		zap.Int64("task_id", task.ID),
		zap.String("status", status))
	return task, nil
}

// Delete removes a checklist item. Manager only.
func (s *taskService) Delete(ctx context.Context, principal workflow.Principal, taskID int64) error {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return fmt.Errorf("delete task: %w", ErrAccessDenied)
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.tasks.Delete(tx, taskID)
	})
}

func (s *taskService) loadRequest(principal workflow.Principal, requestID int64) (*entity.ServiceRequest, error) {
	request, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("service request %d: %w", requestID, ErrNotFound)
	}
	ok, err := s.access.CanAccessRequest(principal, request)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("service request %d: %w", requestID, ErrAccessDenied)
	}
	return request, nil
}
