package job

import (
	"context"
	"encoding/json"
	"time"
)

// Status defines the lifecycle state of a background job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Task types handled by the worker.
const (
	TaskTypeProcessDocument = "process_document"
)

// Job represents a background job.
type Job struct {
	ID        int64           `json:"id"`
	TaskType  string          `json:"task_type"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repository defines the interface for job persistence.
type Repository interface {
	Create(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error)
	Get(ctx context.Context, id int64) (*Job, error)
	UpdateStatus(ctx context.Context, id int64, status Status, err *string) error
}

// ProcessDocumentPayload asks the worker to classify and embed one uploaded
// document.
type ProcessDocumentPayload struct {
	DocumentID string `json:"document_id"`
}
