package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/repository"
	"go.uber.org/zap"
)

// CreateRequestInput carries the fields a manager supplies for a new request
type CreateRequestInput struct {
	HouseID           int64
	ServiceType       string
	ScheduledDate     time.Time
	Description       string
	Notes             string
	EstimatedDuration float64
	Priority          string
	AssignedCleanerID *int64
}

// UpdateRequestInput carries the mutable fields of a request. The current
// place is deliberately absent: only the workflow engine moves it.
type UpdateRequestInput struct {
	ServiceType       string
	ScheduledDate     time.Time
	Description       string
	Notes             string
	EstimatedDuration float64
	ActualDuration    float64
	Priority          string
}

// TransitionOptions carries per-transition parameters
type TransitionOptions struct {
	// AssignCleanerID names the cleaner a manager assigns through the
	// assign transition. Ignored for other transitions.
	AssignCleanerID *int64
}

// RequestDetail is a request together with its audit trail, checklist and
// the transitions the principal may apply
type RequestDetail struct {
	Request            *entity.ServiceRequest `json:"request"`
	History            []entity.HistoryEntry  `json:"workflow_history"`
	Tasks              []*entity.ServiceTask  `json:"tasks"`
	EnabledTransitions []string               `json:"enabled_transitions"`
}

// RequestService manages service requests and drives their workflow
type RequestService interface {
	Create(ctx context.Context, principal workflow.Principal, input CreateRequestInput) (*entity.ServiceRequest, error)
	Get(ctx context.Context, principal workflow.Principal, id int64) (*RequestDetail, error)
	List(ctx context.Context, principal workflow.Principal) ([]*entity.ServiceRequest, error)
	Update(ctx context.Context, principal workflow.Principal, id int64, input UpdateRequestInput) (*entity.ServiceRequest, error)
	Delete(ctx context.Context, principal workflow.Principal, id int64) error
	ApplyTransition(ctx context.Context, principal workflow.Principal, id int64, transition string, opts TransitionOptions) (*RequestDetail, error)
}

type requestService struct {
	tx       TxRunner
	requests RequestStore
	history  HistoryStore
	tasks    TaskStore
	engine   *workflow.Engine
	roles    workflow.RoleChecker
	access   *AccessPolicy
	logger   *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	tx TxRunner,
	requests RequestStore,
	history HistoryStore,
	tasks TaskStore,
	engine *workflow.Engine,
	roles workflow.RoleChecker,
	access *AccessPolicy,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		tx:       tx,
		requests: requests,
		history:  history,
		tasks:    tasks,
		engine:   engine,
		roles:    roles,
		access:   access,
		logger:   logger,
	}
}

// Create creates a request in the workflow's initial place. Manager only.
func (s *requestService) Create(ctx context.Context, principal workflow.Principal, input CreateRequestInput) (*entity.ServiceRequest, error) {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return nil, fmt.Errorf("create request: %w", ErrAccessDenied)
	}

	request := entity.NewServiceRequest(input.HouseID, principal.PrincipalID(), input.ServiceType, input.ScheduledDate)
	request.Description = input.Description
	request.Notes = input.Notes
	request.EstimatedDuration = input.EstimatedDuration
	request.AssignedCleanerID = input.AssignedCleanerID
	if input.Priority != "" {
		request.Priority = input.Priority
	}

	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.requests.Create(tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Service request created",
		zap.Int64("id", request.ID),
		zap.Int64("house_id", request.HouseID),
		zap.Int64("created_by", principal.PrincipalID()))
	return request, nil
}

// Get returns the request with its history, tasks and enabled transitions
func (s *requestService) Get(ctx context.Context, principal workflow.Principal, id int64) (*RequestDetail, error) {
	request, err := s.load(principal, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, principal, request)
}

// List returns the requests visible to the principal: everything for
// admins and managers, assigned plus self-assignable work for cleaners,
// own-house requests for owners.
func (s *requestService) List(ctx context.Context, principal workflow.Principal) ([]*entity.ServiceRequest, error) {
	if s.roles.IsGranted(principal, workflow.RoleManager) {
		return s.requests.List()
	}

	if s.roles.IsGranted(principal, workflow.RoleCleaner) {
		assigned, err := s.requests.ListByAssignedCleaner(principal.PrincipalID())
		if err != nil {
			return nil, err
		}
		available, err := s.requests.ListAvailableForSelfAssignment()
		if err != nil {
			return nil, err
		}
		return s.visiblePlaces(principal, append(assigned, available...)), nil
	}

	// Owner: recompute the inverse of the house foreign key per owned house
	houses, err := s.access.houses.ListByOwner(principal.PrincipalID())
	if err != nil {
		return nil, err
	}
	var requests []*entity.ServiceRequest
	for _, house := range houses {
		forHouse, err := s.requests.ListByHouse(house.ID)
		if err != nil {
			return nil, err
		}
		requests = append(requests, forHouse...)
	}
	return s.visiblePlaces(principal, requests), nil
}

// visiblePlaces drops requests sitting in places whose metadata does not
// admit the principal, keeping List consistent with Get.
func (s *requestService) visiblePlaces(principal workflow.Principal, requests []*entity.ServiceRequest) []*entity.ServiceRequest {
	def := s.engine.Definition()
	visible := requests[:0]
	for _, r := range requests {
		if s.access.CanAccessPlace(def, principal, r.CurrentPlace) {
			visible = append(visible, r)
		}
	}
	return visible
}

// Update updates a request's descriptive fields. Manager only.
func (s *requestService) Update(ctx context.Context, principal workflow.Principal, id int64, input UpdateRequestInput) (*entity.ServiceRequest, error) {
	if !s.roles.IsGranted(principal, workflow.RoleManager) {
		return nil, fmt.Errorf("update request: %w", ErrAccessDenied)
	}

	request, err := s.load(principal, id)
	if err != nil {
		return nil, err
	}

	request.ServiceType = input.ServiceType
	request.ScheduledDate = input.ScheduledDate
	request.Description = input.Description
	request.Notes = input.Notes
	request.EstimatedDuration = input.EstimatedDuration
	request.ActualDuration = input.ActualDuration
	if input.Priority != "" {
		request.Priority = input.Priority
	}

	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.requests.Update(tx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Delete removes a request. Admin only.
func (s *requestService) Delete(ctx context.Context, principal workflow.Principal, id int64) error {
	if !s.roles.IsGranted(principal, workflow.RoleAdmin) {
		return fmt.Errorf("delete request: %w", ErrAccessDenied)
	}
	return s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.requests.Delete(tx, id)
	})
}

// ApplyTransition drives the workflow engine and persists the outcome.
// The place change, the audit append and any completion stamp are saved in
// one transaction; on persistence failure the in-memory request must be
// discarded and reloaded by the caller.
func (s *requestService) ApplyTransition(ctx context.Context, principal workflow.Principal, id int64, transition string, opts TransitionOptions) (*RequestDetail, error) {
	// Transitions are authorized by the workflow guard, not the
	// visibility policy, so rejections carry the guard's reason.
	request, err := s.fetch(id)
	if err != nil {
		return nil, err
	}

	// Assignment must land on the subject before Apply so guards and
	// subscribers observe it during the same transition.
	switch transition {
	case workflow.TransitionSelfAssign:
		if s.roles.IsGranted(principal, workflow.RoleCleaner) && request.AssignedCleanerID == nil {
			cleanerID := principal.PrincipalID()
			request.AssignedCleanerID = &cleanerID
		}
	case workflow.TransitionAssign:
		if opts.AssignCleanerID != nil {
			request.AssignedCleanerID = opts.AssignCleanerID
		}
	}

	if err := s.engine.Apply(ctx, principal, request, transition); err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := s.requests.Update(tx, request); err != nil {
			return err
		}
		for i := range request.History {
			if err := s.history.Create(tx, &request.History[i]); err != nil {
				return fmt.Errorf("%w: %v", ErrAuditPersist, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrencyConflict) || errors.Is(err, ErrAuditPersist) {
			s.logger.Warn("Transition persistence failed",
				zap.Int64("request_id", id),
				zap.String("transition", transition),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Transition applied",
		zap.Int64("request_id", id),
		zap.String("transition", transition),
		zap.String("place", request.CurrentPlace.String()),
		zap.Int64("principal_id", principal.PrincipalID()))

	request.History = nil
	return s.detail(ctx, principal, request)
}

func (s *requestService) fetch(id int64) (*entity.ServiceRequest, error) {
	request, err := s.requests.GetByID(id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("service request %d: %w", id, ErrNotFound)
	}
	return request, nil
}

func (s *requestService) load(principal workflow.Principal, id int64) (*entity.ServiceRequest, error) {
	request, err := s.fetch(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.access.CanAccessRequest(principal, request)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("service request %d: %w", id, ErrAccessDenied)
	}
	if !s.access.CanAccessPlace(s.engine.Definition(), principal, request.CurrentPlace) {
		return nil, fmt.Errorf("service request %d: %w", id, ErrAccessDenied)
	}
	return request, nil
}

func (s *requestService) detail(ctx context.Context, principal workflow.Principal, request *entity.ServiceRequest) (*RequestDetail, error) {
	history, err := s.history.ListByRequestID(request.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByRequestID(request.ID)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{
		Request:            request,
		History:            history,
		Tasks:              tasks,
		EnabledTransitions: s.engine.EnabledTransitions(ctx, principal, request),
	}, nil
}
