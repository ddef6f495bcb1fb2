package services

import (
	"context"
	"fmt"
	"time"

	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/repository"
)

const (
	earningsHistoryLimit = 50
	unknownTaskTitle     = "Unknown Task"
)

// Balance a worker's current balances in lamports
type Balance struct {
	PendingBalance int64
	LockedBalance  int64
}

// EarningsSummary lifetime totals for one worker
type EarningsSummary struct {
	TotalEarned    int64
	PendingBalance int64
	LockedBalance  int64
	TotalTasks     int64
	TotalPaidOut   int64
}

// EarningEntry one rewarded submission
type EarningEntry struct {
	SubmissionID string
	TaskID       string
	TaskTitle    string
	Amount       int64
	CreatedAt    time.Time
}

// EarningsHistory summary plus the latest submissions and payouts, newest first
type EarningsHistory struct {
	Summary     EarningsSummary
	Submissions []EarningEntry
	Payouts     []*models.Payout
}

// EarningsService read-only views over a worker's ledger
type EarningsService struct {
	workers     repository.WorkerRepository
	submissions repository.SubmissionRepository
	payouts     repository.PayoutRepository
}

// NewEarningsService creates a new EarningsService
func NewEarningsService(
	workers repository.WorkerRepository,
	submissions repository.SubmissionRepository,
	payouts repository.PayoutRepository,
) *EarningsService {
	return &EarningsService{workers: workers, submissions: submissions, payouts: payouts}
}

// GetBalance pending and locked balances
func (s *EarningsService) GetBalance(ctx context.Context, workerID string) (*Balance, error) {
	worker, err := s.loadWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return &Balance{PendingBalance: worker.PendingBalance, LockedBalance: worker.LockedBalance}, nil
}

// GetEarningsHistory totals, the latest 50 submissions and the latest 50 payouts
func (s *EarningsService) GetEarningsHistory(ctx context.Context, workerID string) (*EarningsHistory, error) {
	worker, err := s.loadWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	earned, count, err := s.submissions.TotalsByWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to total submissions: %w", err)
	}
	paidOut, err := s.payouts.SumByWorkerAndStatus(ctx, workerID, models.PayoutStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("failed to total payouts: %w", err)
	}

	submissions, err := s.submissions.ListRecentByWorker(ctx, workerID, earningsHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	payouts, err := s.payouts.ListRecentByWorker(ctx, workerID, earningsHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}

	entries := make([]EarningEntry, 0, len(submissions))
	for _, sub := range submissions {
		title := unknownTaskTitle
		if sub.Task != nil && sub.Task.Title != "" {
			title = sub.Task.Title
		}
		entries = append(entries, EarningEntry{
			SubmissionID: sub.ID,
			TaskID:       sub.TaskID,
			TaskTitle:    title,
			Amount:       sub.Amount,
			CreatedAt:    sub.CreatedAt,
		})
	}

	return &EarningsHistory{
		Summary: EarningsSummary{
			TotalEarned:    earned,
			PendingBalance: worker.PendingBalance,
			LockedBalance:  worker.LockedBalance,
			TotalTasks:     count,
			TotalPaidOut:   paidOut,
		},
		Submissions: entries,
		Payouts:     payouts,
	}, nil
}

func (s *EarningsService) loadWorker(ctx context.Context, workerID string) (*models.Worker, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if repository.IsNotFound(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	return worker, nil
}
