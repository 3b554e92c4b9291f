package entity

import "time"

// ServiceTask is a checklist item belonging to a service request
type ServiceTask struct {
	ID              int64      `json:"id"`
	RequestID       int64      `json:"request_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	SortOrder       int        `json:"sort_order"`
	IsRequired      bool       `json:"is_required"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty"`
}
