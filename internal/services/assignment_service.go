package services

import (
	"context"
	"fmt"

	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/repository"
)

// AssignmentService picks the next task a worker should label. Results are
// never cached so a worker always sees its own latest submission.
type AssignmentService struct {
	tasks repository.TaskRepository
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(tasks repository.TaskRepository) *AssignmentService {
	return &AssignmentService{tasks: tasks}
}

// NextTask oldest open task without a submission from workerID, or nil when
// the worker is caught up.
func (s *AssignmentService) NextTask(ctx context.Context, workerID string) (*models.Task, error) {
	task, err := s.tasks.NextForWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select next task: %w", err)
	}
	return task, nil
}
