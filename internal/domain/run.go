package domain

import "time"

// RunStatus represents the status of a batch annotation run.
// Values include RunStatusRunning, RunStatusCompleted, and RunStatusFailed.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BatchOperation identifies which bulk operation a run performed.
type BatchOperation string

const (
	OperationAnnotateAll        BatchOperation = "annotate_all"
	OperationGenerateContextAll BatchOperation = "generate_context_all"
)

// AnnotationRun records one batch annotation run and its final tallies.
type AnnotationRun struct {
	ID           string         `gorm:"type:text;primaryKey" json:"id"`
	Operation    BatchOperation `gorm:"type:text;not null;index" json:"operation"`
	Status       RunStatus      `gorm:"default:running" json:"status"`
	TotalItems   int            `gorm:"default:0" json:"total_items"`
	SuccessCount int            `gorm:"default:0" json:"success_count"`
	FailureCount int            `gorm:"default:0" json:"failure_count"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	ErrorLog     string         `json:"error_log,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName returns the database table name for AnnotationRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (AnnotationRun) TableName() string {
	return "annotation_runs"
}
