package services

import (
	"context"
	"errors"
	"fmt"

	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitResult balances after the submission and the next task to label
type SubmitResult struct {
	SubmissionID   string
	Reward         int64
	PendingBalance int64
	LockedBalance  int64
	NextTask       *models.Task
	AllDone        bool
}

// SubmissionService records answers and credits rewards
type SubmissionService struct {
	db          *gorm.DB
	tasks       repository.TaskRepository
	workers     repository.WorkerRepository
	submissions repository.SubmissionRepository
	assignment  *AssignmentService
	logger      *logrus.Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	db *gorm.DB,
	tasks repository.TaskRepository,
	workers repository.WorkerRepository,
	submissions repository.SubmissionRepository,
	assignment *AssignmentService,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		db:          db,
		tasks:       tasks,
		workers:     workers,
		submissions: submissions,
		assignment:  assignment,
		logger:      logger,
	}
}

// Submit records workerID's answer optionID for taskID. The submission row,
// the pending balance credit and the done flag commit together.
func (s *SubmissionService) Submit(ctx context.Context, workerID, taskID, optionID string) (*SubmitResult, error) {
	current, err := s.assignment.NextTask(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != taskID {
		return nil, s.rejectStale(ctx, workerID, taskID, current)
	}
	if !current.HasOption(optionID) {
		metrics.Submissions.WithLabelValues("invalid_option").Inc()
		return nil, ErrInvalidOption
	}

	reward := current.Reward()
	submission := &models.Submission{
		WorkerID: workerID,
		TaskID:   taskID,
		OptionID: optionID,
		Amount:   reward,
	}
	var closed bool

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		submissions := s.submissions.WithTx(tx)

		task, err := tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}
		if task.Done {
			return ErrTaskClosed
		}

		if err := submissions.Create(ctx, submission); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("failed to insert submission: %w", err)
		}

		if err := s.workers.WithTx(tx).CreditPending(ctx, workerID, reward); err != nil {
			if repository.IsNotFound(err) {
				return ErrUnauthorized
			}
			return fmt.Errorf("failed to credit worker: %w", err)
		}

		count, err := submissions.CountByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to count submissions: %w", err)
		}
		if count >= int64(task.MaximumSubmissions) {
			closed, err = tasks.MarkDone(ctx, taskID)
			if err != nil {
				return fmt.Errorf("failed to close task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.Submissions.WithLabelValues(submitResultLabel(err)).Inc()
		return nil, err
	}
	metrics.Submissions.WithLabelValues("ok").Inc()

	fields := logrus.Fields{
		"worker_id": workerID,
		"task_id":   taskID,
		"reward":    reward,
	}
	if closed {
		s.logger.WithFields(fields).Info("🏁 Task reached its submission limit")
	} else {
		s.logger.WithFields(fields).Debug("Submission recorded")
	}

	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload worker: %w", err)
	}
	next, err := s.assignment.NextTask(ctx, workerID)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		SubmissionID:   submission.ID,
		Reward:         reward,
		PendingBalance: worker.PendingBalance,
		LockedBalance:  worker.LockedBalance,
		NextTask:       next,
		AllDone:        next == nil,
	}, nil
}

// rejectStale explains why taskID is not the worker's current task
func (s *SubmissionService) rejectStale(ctx context.Context, workerID, taskID string, current *models.Task) error {
	submitted, err := s.submissions.Exists(ctx, workerID, taskID)
	if err != nil {
		return fmt.Errorf("failed to look up submission: %w", err)
	}
	switch {
	case submitted:
		metrics.Submissions.WithLabelValues("duplicate").Inc()
		return ErrAlreadySubmitted
	case current == nil:
		metrics.Submissions.WithLabelValues("no_task").Inc()
		return ErrNoTaskAvailable
	default:
		metrics.Submissions.WithLabelValues("mismatch").Inc()
		return ErrTaskMismatch
	}
}

func submitResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrAlreadySubmitted):
		return "duplicate"
	case errors.Is(err, ErrTaskClosed):
		return "closed"
	case errors.Is(err, ErrUnauthorized):
		return "unknown_worker"
	default:
		return "error"
	}
}
