package dto

import "time"

// ==================== Worker DTOs ====================

// NextTaskResponse GET /api/worker/next-task. Task is null when the worker
// is caught up.
type NextTaskResponse struct {
	Task           *TaskResponse `json:"task"`
	Message        string        `json:"message,omitempty"`
	PendingBalance int64         `json:"pendingBalance"`
	LockedBalance  int64         `json:"lockedBalance"`
}

// SubmissionRequest POST /api/worker/submission
type SubmissionRequest struct {
	TaskID   string `json:"taskId" binding:"required,max=64"`
	OptionID string `json:"optionId" binding:"required,max=64"`
}

// SubmissionResponse balances after the submission and the next task
type SubmissionResponse struct {
	Message        string        `json:"message"`
	SubmissionID   string        `json:"submissionId"`
	Reward         int64         `json:"reward"`
	NextTask       *TaskResponse `json:"nextTask"`
	AllDone        bool          `json:"allDone"`
	PendingBalance int64         `json:"pendingBalance"`
	LockedBalance  int64         `json:"lockedBalance"`
}

// BalanceResponse GET /api/worker/balance
type BalanceResponse struct {
	PendingBalance int64  `json:"pendingBalance"`
	LockedBalance  int64  `json:"lockedBalance"`
	PendingSOL     string `json:"pendingSol"`
	LockedSOL      string `json:"lockedSol"`
}

// PayoutResponse POST /api/worker/payouts
type PayoutResponse struct {
	Message    string `json:"message"`
	PayoutID   string `json:"payoutId"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Dispatched bool   `json:"dispatched"`
}

// EarningsSummaryResponse lifetime totals
type EarningsSummaryResponse struct {
	TotalEarned    int64 `json:"totalEarned"`
	PendingBalance int64 `json:"pendingBalance"`
	LockedBalance  int64 `json:"lockedBalance"`
	TotalTasks     int64 `json:"totalTasks"`
	TotalPaidOut   int64 `json:"totalPaidOut"`
}

// EarningResponse one rewarded submission
type EarningResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// PayoutHistoryResponse one payout of a worker or in the admin list
type PayoutHistoryResponse struct {
	ID                string     `json:"id"`
	WorkerID          string     `json:"workerId,omitempty"`
	Amount            int64      `json:"amount"`
	Status            string     `json:"status"`
	Signature         string     `json:"signature"`
	DispatchedAt      *time.Time `json:"dispatchedAt,omitempty"`
	DispatchAttempts  int        `json:"dispatchAttempts"`
	LastDispatchError string     `json:"lastDispatchError,omitempty"`
	SettledAt         *time.Time `json:"settledAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// EarningsResponse GET /api/worker/earnings
type EarningsResponse struct {
	Summary     EarningsSummaryResponse `json:"summary"`
	Submissions []EarningResponse       `json:"submissions"`
	Payouts     []PayoutHistoryResponse `json:"payouts"`
}
