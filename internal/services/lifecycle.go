package services

import (
	"context"

	"crowdmint-backend/internal/models"
)

// NextTaskView the worker's next task together with its balances
type NextTaskView struct {
	Task    *models.Task
	Balance Balance
}

// TaskLifecycle entry point for the HTTP layer: create, label, pay out
type TaskLifecycle struct {
	tasks       *TaskService
	assignment  *AssignmentService
	submissions *SubmissionService
	payouts     *PayoutService
	earnings    *EarningsService
}

// NewTaskLifecycle creates a new TaskLifecycle
func NewTaskLifecycle(
	tasks *TaskService,
	assignment *AssignmentService,
	submissions *SubmissionService,
	payouts *PayoutService,
	earnings *EarningsService,
) *TaskLifecycle {
	return &TaskLifecycle{
		tasks:       tasks,
		assignment:  assignment,
		submissions: submissions,
		payouts:     payouts,
		earnings:    earnings,
	}
}

// CreateTask returns the id of the new task
func (l *TaskLifecycle) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (string, error) {
	task, err := l.tasks.CreateTask(ctx, ownerID, in)
	if err != nil {
		return "", err
	}
	return task.ID, nil
}

func (l *TaskLifecycle) GetTaskResult(ctx context.Context, taskID, ownerID string) (*TaskResult, error) {
	return l.tasks.GetTaskResult(ctx, taskID, ownerID)
}

func (l *TaskLifecycle) ListTasksForOwner(ctx context.Context, ownerID string) ([]TaskSummary, error) {
	return l.tasks.ListTasksForOwner(ctx, ownerID)
}

// NextTask unknown workers are ErrUnauthorized. A nil Task means the worker
// is caught up.
func (l *TaskLifecycle) NextTask(ctx context.Context, workerID string) (*NextTaskView, error) {
	balance, err := l.earnings.GetBalance(ctx, workerID)
	if err != nil {
		return nil, err
	}
	task, err := l.assignment.NextTask(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return &NextTaskView{Task: task, Balance: *balance}, nil
}

func (l *TaskLifecycle) Submit(ctx context.Context, workerID, taskID, optionID string) (*SubmitResult, error) {
	return l.submissions.Submit(ctx, workerID, taskID, optionID)
}

func (l *TaskLifecycle) RequestPayout(ctx context.Context, workerID string) (*PayoutResult, error) {
	return l.payouts.RequestPayout(ctx, workerID)
}

func (l *TaskLifecycle) SettlePayout(ctx context.Context, payoutID string, status models.PayoutStatus, signature string) (*models.Payout, error) {
	return l.payouts.SettlePayout(ctx, payoutID, status, signature)
}

func (l *TaskLifecycle) ListPayouts(ctx context.Context, status models.PayoutStatus, limit int) ([]*models.Payout, error) {
	return l.payouts.ListPayouts(ctx, status, limit)
}

func (l *TaskLifecycle) RedispatchPayouts(ctx context.Context) (*RedispatchReport, error) {
	return l.payouts.Redispatch(ctx)
}

func (l *TaskLifecycle) GetBalance(ctx context.Context, workerID string) (*Balance, error) {
	return l.earnings.GetBalance(ctx, workerID)
}

func (l *TaskLifecycle) GetEarningsHistory(ctx context.Context, workerID string) (*EarningsHistory, error) {
	return l.earnings.GetEarningsHistory(ctx, workerID)
}
