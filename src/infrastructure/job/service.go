package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// TopicJobs is the queue all jobs travel on.
const TopicJobs = "jobs"

// Service enqueues jobs and dispatches queue messages to task handlers.
type Service struct {
	publisher   message.Publisher
	repo        Repository
	logger      watermill.LoggerAdapter
	processTask *ProcessDocumentTask
}

type Message struct {
	JobID    int64           `json:"job_id"`
	TaskType string          `json:"task_type"`
	Payload  json.RawMessage `json:"payload"`
}

func NewService(
	publisher message.Publisher,
	repo Repository,
	logger watermill.LoggerAdapter,
	processTask *ProcessDocumentTask,
) *Service {
	return &Service{
		publisher:   publisher,
		repo:        repo,
		logger:      logger,
		processTask: processTask,
	}
}

// EnqueueProcessDocument queues classification and embedding for an uploaded
// document.
func (s *Service) EnqueueProcessDocument(ctx context.Context, documentID string) (*Job, error) {
	payload, err := json.Marshal(ProcessDocumentPayload{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return s.Enqueue(ctx, TaskTypeProcessDocument, payload)
}

// Enqueue creates a job record and publishes it to the queue.
func (s *Service) Enqueue(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	j, err := s.repo.Create(ctx, taskType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobMsg := Message{
		JobID:    j.ID,
		TaskType: j.TaskType,
		Payload:  j.Payload,
	}
	msgPayload, err := json.Marshal(jobMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), msgPayload)
	if err := s.publisher.Publish(TopicJobs, msg); err != nil {
		return nil, fmt.Errorf("failed to publish job message: %w", err)
	}
	return j, nil
}

// ProcessMessage handles one job message from the queue.
func (s *Service) ProcessMessage(msg *message.Message) error {
	var jobMsg Message
	if err := json.Unmarshal(msg.Payload, &jobMsg); err != nil {
		return fmt.Errorf("failed to unmarshal job message: %w", err)
	}

	ctx := context.Background()

	j, err := s.repo.Get(ctx, jobMsg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if j == nil {
		return fmt.Errorf("job not found: %d", jobMsg.JobID)
	}

	if err := s.repo.UpdateStatus(ctx, j.ID, StatusRunning, nil); err != nil {
		return fmt.Errorf("failed to update job status to running: %w", err)
	}

	err = s.dispatch(ctx, j)
	if err != nil {
		errStr := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, j.ID, StatusFailed, &errStr); updateErr != nil {
			s.logger.Error("Failed to update job status to failed", updateErr, watermill.LogFields{
				"job_id": j.ID,
			})
		}
		return fmt.Errorf("failed to process job: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, j.ID, StatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, j *Job) error {
	switch j.TaskType {
	case TaskTypeProcessDocument:
		return s.processTask.Handle(ctx, j.Payload)
	default:
		return fmt.Errorf("unknown task type: %s", j.TaskType)
	}
}
