package entity

// Priority constants for ServiceRequest
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Service type constants for ServiceRequest
const (
	ServiceTypeCleaning        = "cleaning"
	ServiceTypeDeepCleaning    = "deep_cleaning"
	ServiceTypeMaintenance     = "maintenance"
	ServiceTypeInspection      = "inspection"
	ServiceTypePoolMaintenance = "pool_maintenance"
)

// Status constants for ServiceTask
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusSkipped    = "skipped"
)
