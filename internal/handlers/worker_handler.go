// Worker Handlers - labeler facing (worker token required)
package handlers

import (
	"context"
	"net/http"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/services"
	"crowdmint-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WorkerAPI worker operations of the task lifecycle
type WorkerAPI interface {
	NextTask(ctx context.Context, workerID string) (*services.NextTaskView, error)
	Submit(ctx context.Context, workerID, taskID, optionID string) (*services.SubmitResult, error)
	GetBalance(ctx context.Context, workerID string) (*services.Balance, error)
	RequestPayout(ctx context.Context, workerID string) (*services.PayoutResult, error)
	GetEarningsHistory(ctx context.Context, workerID string) (*services.EarningsHistory, error)
}

// WorkerHandler handles worker routes
type WorkerHandler struct {
	api    WorkerAPI
	logger *logrus.Logger
}

// NewWorkerHandler creates a new WorkerHandler
func NewWorkerHandler(api WorkerAPI, logger *logrus.Logger) *WorkerHandler {
	return &WorkerHandler{api: api, logger: logger}
}

// NextTaskHandler oldest open task the worker has not answered
// GET /api/worker/next-task
func (h *WorkerHandler) NextTaskHandler(c *gin.Context) {
	view, err := h.api.NextTask(c.Request.Context(), c.GetString(ContextWorkerID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	resp := dto.NextTaskResponse{
		Task:           toTaskResponse(view.Task),
		PendingBalance: view.Balance.PendingBalance,
		LockedBalance:  view.Balance.LockedBalance,
	}
	if view.Task == nil {
		resp.Message = "You don't have any tasks left for you to review"
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitHandler records an answer for the worker's current task
// POST /api/worker/submission
func (h *WorkerHandler) SubmitHandler(c *gin.Context) {
	var req dto.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.api.Submit(c.Request.Context(), c.GetString(ContextWorkerID), req.TaskID, req.OptionID)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	message := "Submission recorded"
	if result.AllDone {
		message = "Submission recorded - All tasks completed!"
	}

	c.JSON(http.StatusOK, dto.SubmissionResponse{
		Message:        message,
		SubmissionID:   result.SubmissionID,
		Reward:         result.Reward,
		NextTask:       toTaskResponse(result.NextTask),
		AllDone:        result.AllDone,
		PendingBalance: result.PendingBalance,
		LockedBalance:  result.LockedBalance,
	})
}

// BalanceHandler pending and locked balances
// GET /api/worker/balance
func (h *WorkerHandler) BalanceHandler(c *gin.Context) {
	balance, err := h.api.GetBalance(c.Request.Context(), c.GetString(ContextWorkerID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		PendingBalance: balance.PendingBalance,
		LockedBalance:  balance.LockedBalance,
		PendingSOL:     utils.LamportsToSOL(balance.PendingBalance),
		LockedSOL:      utils.LamportsToSOL(balance.LockedBalance),
	})
}

// RequestPayoutHandler locks the whole pending balance into a new payout
// POST /api/worker/payouts
func (h *WorkerHandler) RequestPayoutHandler(c *gin.Context) {
	result, err := h.api.RequestPayout(c.Request.Context(), c.GetString(ContextWorkerID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	message := "Payout is being processed"
	if !result.Dispatched {
		message = "Payout recorded, dispatch will be retried"
	}
	c.JSON(http.StatusOK, dto.PayoutResponse{
		Message:    message,
		PayoutID:   result.PayoutID,
		Amount:     result.Amount,
		Status:     string(result.Status),
		Dispatched: result.Dispatched,
	})
}

// EarningsHandler lifetime totals with recent submissions and payouts
// GET /api/worker/earnings
func (h *WorkerHandler) EarningsHandler(c *gin.Context) {
	history, err := h.api.GetEarningsHistory(c.Request.Context(), c.GetString(ContextWorkerID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	submissions := make([]dto.EarningResponse, 0, len(history.Submissions))
	for _, e := range history.Submissions {
		submissions = append(submissions, dto.EarningResponse{
			ID:        e.SubmissionID,
			TaskID:    e.TaskID,
			TaskTitle: e.TaskTitle,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.EarningsResponse{
		Summary: dto.EarningsSummaryResponse{
			TotalEarned:    history.Summary.TotalEarned,
			PendingBalance: history.Summary.PendingBalance,
			LockedBalance:  history.Summary.LockedBalance,
			TotalTasks:     history.Summary.TotalTasks,
			TotalPaidOut:   history.Summary.TotalPaidOut,
		},
		Submissions: submissions,
		Payouts:     toPayoutHistory(history.Payouts),
	})
}
