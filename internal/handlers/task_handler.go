// Task Handlers - requester facing (user token required)
package handlers

import (
	"context"
	"net/http"

	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskAPI requester operations of the task lifecycle
type TaskAPI interface {
	CreateTask(ctx context.Context, ownerID string, in services.CreateTaskInput) (string, error)
	GetTaskResult(ctx context.Context, taskID, ownerID string) (*services.TaskResult, error)
	ListTasksForOwner(ctx context.Context, ownerID string) ([]services.TaskSummary, error)
}

// TaskHandler handles requester task routes
type TaskHandler struct {
	api    TaskAPI
	logger *logrus.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(api TaskAPI, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{api: api, logger: logger}
}

// CreateTaskHandler creates an escrow funded task
// POST /api/user/tasks
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	options := make([]services.OptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, services.OptionInput{ImageURL: o.ImageURL, TextValue: o.TextValue})
	}

	id, err := h.api.CreateTask(c.Request.Context(), userID, services.CreateTaskInput{
		Title:              req.Title,
		Type:               models.TaskType(req.Type),
		Options:            options,
		Amount:             req.Amount,
		Signature:          req.Signature,
		MaximumSubmissions: req.MaximumSubmissions,
	})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateTaskResponse{ID: id})
}

// GetTaskResultHandler per-option tally of one of the caller's tasks
// GET /api/user/tasks?taskId=
func (h *TaskHandler) GetTaskResultHandler(c *gin.Context) {
	taskID := c.Query("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "taskId is required", Code: "INVALID_REQUEST"})
		return
	}

	result, err := h.api.GetTaskResult(c.Request.Context(), taskID, c.GetString(ContextUserID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toTaskResultResponse(result))
}

// ListTasksHandler every task of the caller, newest first
// GET /api/user/all-tasks
func (h *TaskHandler) ListTasksHandler(c *gin.Context) {
	summaries, err := h.api.ListTasksForOwner(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	tasks := make([]dto.TaskSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		tasks = append(tasks, toTaskSummaryResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
