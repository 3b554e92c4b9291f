package entity

import (
	"time"

	"github.com/brooklane/housecare/internal/domain/workflow"
)

// ServiceRequest is the workflow subject: a cleaning or maintenance job
// against a house, moved through its lifecycle exclusively by the engine.
type ServiceRequest struct {
	ID                int64          `json:"id"`
	HouseID           int64          `json:"house_id"`
	ServiceType       string         `json:"service_type"`
	CurrentPlace      workflow.Place `json:"current_place"`
	ScheduledDate     time.Time      `json:"scheduled_date"`
	CompletedDate     *time.Time     `json:"completed_date,omitempty"`
	Description       string         `json:"description,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	EstimatedDuration float64        `json:"estimated_duration,omitempty"`
	ActualDuration    float64        `json:"actual_duration,omitempty"`
	CreatedByID       int64          `json:"created_by_id"`
	AssignedCleanerID *int64         `json:"assigned_cleaner_id,omitempty"`
	Priority          string         `json:"priority"`
	Version           int64          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	// History holds workflow history entries appended during the current
	// apply; repositories load the full trail on demand.
	History []HistoryEntry `json:"workflow_history,omitempty"`
}

// HistoryEntry is one immutable record of the workflow audit trail
type HistoryEntry struct {
	ID         int64          `json:"id"`
	RequestID  int64          `json:"request_id"`
	FromPlace  workflow.Place `json:"from"`
	ToPlace    workflow.Place `json:"to"`
	Transition string         `json:"transition"`
	ActorID    int64          `json:"actor_id"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewServiceRequest creates a request in the workflow's initial place
func NewServiceRequest(houseID, createdByID int64, serviceType string, scheduledDate time.Time) *ServiceRequest {
	now := time.Now()
	return &ServiceRequest{
		HouseID:       houseID,
		ServiceType:   serviceType,
		CurrentPlace:  workflow.PlaceDraft,
		ScheduledDate: scheduledDate,
		CreatedByID:   createdByID,
		Priority:      PriorityNormal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Place returns the request's current workflow place
func (r *ServiceRequest) Place() workflow.Place {
	return r.CurrentPlace
}

// SetPlace moves the request to a new place. Reserved for the workflow
// engine; no other code path may call it once the engine owns the request.
func (r *ServiceRequest) SetPlace(place workflow.Place) {
	r.CurrentPlace = place
}

// AssignedTo returns the assigned cleaner's id, if any
func (r *ServiceRequest) AssignedTo() (int64, bool) {
	if r.AssignedCleanerID == nil {
		return 0, false
	}
	return *r.AssignedCleanerID, true
}

// AppendHistory records one applied transition in the audit trail
func (r *ServiceRequest) AppendHistory(from, to workflow.Place, transition string, actorID int64, at time.Time) {
	r.History = append(r.History, HistoryEntry{
		RequestID:  r.ID,
		FromPlace:  from,
		ToPlace:    to,
		Transition: transition,
		ActorID:    actorID,
		Timestamp:  at,
	})
}

// StampCompleted sets the completion timestamp on first entry into the
// completed place. Idempotent: an existing timestamp is never overwritten.
func (r *ServiceRequest) StampCompleted(at time.Time) {
	if r.CompletedDate == nil {
		t := at
		r.CompletedDate = &t
	}
}
