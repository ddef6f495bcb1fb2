package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== Task DTOs ====================

// OptionRequest one answer choice. IMAGE tasks need imageUrl.
type OptionRequest struct {
	ImageURL  string `json:"imageUrl" binding:"omitempty,url,max=2048"`
	TextValue string `json:"textValue" binding:"omitempty,max=1000"`
}

// CreateTaskRequest POST /api/user/tasks
type CreateTaskRequest struct {
	Title              string          `json:"title" binding:"max=255"`
	Type               string          `json:"type" binding:"required,oneof=TEXT IMAGE"`
	Options            []OptionRequest `json:"options" binding:"required,min=1,dive"`
	Amount             decimal.Decimal `json:"amount"` // SOL, number or string
	Signature          string          `json:"signature" binding:"required,base58sig"`
	MaximumSubmissions int             `json:"maximumSubmissions" binding:"omitempty,min=1"`
}

// CreateTaskResponse id of the new task
type CreateTaskResponse struct {
	ID string `json:"id"`
}

// OptionResponse option as shown to workers and owners
type OptionResponse struct {
	ID        string  `json:"id"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	TextValue *string `json:"textValue,omitempty"`
}

// TaskResponse task as shown to a worker
type TaskResponse struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Type               string           `json:"type"`
	Amount             int64            `json:"amount"` // lamports
	Reward             int64            `json:"reward"` // lamports per submission
	MaximumSubmissions int              `json:"maximumSubmissions"`
	Options            []OptionResponse `json:"options"`
}

// OptionCountResponse option with its submission count
type OptionCountResponse struct {
	Count  int64          `json:"count"`
	Option OptionResponse `json:"option"`
}

// TaskResultTask task fields returned to its owner
type TaskResultTask struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Type               string    `json:"type"`
	Amount             int64     `json:"amount"`
	MaximumSubmissions int       `json:"maximumSubmissions"`
	Reward             int64     `json:"reward"`
	Dust               int64     `json:"dust"` // lamports no submission receives
	Done               bool      `json:"done"`
	Signature          string    `json:"signature"`
	CreatedAt          time.Time `json:"createdAt"`
}

// TaskResultResponse GET /api/user/tasks?taskId=
type TaskResultResponse struct {
	Result     map[string]OptionCountResponse `json:"result"` // keyed by option id
	TaskDetail TaskResultTask                 `json:"taskDetails"`
}

// TaskSummaryResponse one entry of GET /api/user/all-tasks
type TaskSummaryResponse struct {
	TaskResultTask
	Options []OptionCountResponse `json:"options"`
}
