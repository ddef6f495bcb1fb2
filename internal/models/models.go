package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LamportsPerSOL smallest-unit multiplier for SOL amounts
const LamportsPerSOL int64 = 1_000_000_000

// TaskType kind of labeling task
type TaskType string

const (
	TaskTypeText  TaskType = "TEXT"
	TaskTypeImage TaskType = "IMAGE"
)

// Valid reports whether t is a known task type
func (t TaskType) Valid() bool {
	return t == TaskTypeText || t == TaskTypeImage
}

// User a requester who funds tasks. Created lazily on first sign-in.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Address   string    `json:"address" gorm:"size:64;uniqueIndex;not null"` // base58 wallet address
	CreatedAt time.Time `json:"created_at"`
}

// Worker a labeler. Balances are lamports and only move through the
// submission ledger and the payout state machine.
type Worker struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Address        string    `json:"address" gorm:"size:64;uniqueIndex;not null"`
	PendingBalance int64     `json:"pending_balance" gorm:"not null;default:0;check:chk_workers_pending_balance,pending_balance >= 0"`
	LockedBalance  int64     `json:"locked_balance" gorm:"not null;default:0;check:chk_workers_locked_balance,locked_balance >= 0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Task an escrow-funded labeling job. Immutable after creation except Done,
// which only flips false -> true.
type Task struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	UserID             string    `json:"user_id" gorm:"size:36;not null;index"`
	Title              string    `json:"title" gorm:"size:255"`
	Type               TaskType  `json:"type" gorm:"size:16;not null"`
	Amount             int64     `json:"amount" gorm:"not null;check:chk_tasks_amount,amount > 0"` // escrowed lamports
	Signature          string    `json:"signature" gorm:"size:128;uniqueIndex;not null"`           // escrow transaction signature
	MaximumSubmissions int       `json:"maximum_submissions" gorm:"not null;check:chk_tasks_maximum_submissions,maximum_submissions > 0"`
	Done               bool      `json:"done" gorm:"not null;default:false;index"`
	CreatedAt          time.Time `json:"created_at" gorm:"index"`

	Options []Option `json:"options,omitempty" gorm:"foreignKey:TaskID"`
}

// Reward per-submission payout: floor(Amount / MaximumSubmissions).
// The remainder stays in the platform escrow wallet.
func (t *Task) Reward() int64 {
	if t.MaximumSubmissions <= 0 {
		return 0
	}
	return t.Amount / int64(t.MaximumSubmissions)
}

// Dust lamports of the escrow that no submission will ever receive
func (t *Task) Dust() int64 {
	if t.MaximumSubmissions <= 0 {
		return t.Amount
	}
	return t.Amount % int64(t.MaximumSubmissions)
}

// HasOption reports whether optionID belongs to the task's preloaded options
func (t *Task) HasOption(optionID string) bool {
	for i := range t.Options {
		if t.Options[i].ID == optionID {
			return true
		}
	}
	return false
}

// Option one answer choice of a task
type Option struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	TaskID    string    `json:"task_id" gorm:"size:36;not null;index"`
	Position  int       `json:"position" gorm:"not null"` // order supplied at creation
	ImageURL  *string   `json:"image_url,omitempty" gorm:"type:text"`
	TextValue *string   `json:"text_value,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission one worker's answer to one task. Never updated or deleted.
type Submission struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	WorkerID  string    `json:"worker_id" gorm:"size:36;not null;uniqueIndex:idx_submissions_worker_task,priority:1"`
	TaskID    string    `json:"task_id" gorm:"size:36;not null;uniqueIndex:idx_submissions_worker_task,priority:2;index"`
	OptionID  string    `json:"option_id" gorm:"size:36;not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"` // reward credited, lamports
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Task *Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// All every model managed by AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&Worker{},
		&Task{},
		&Option{},
		&Submission{},
		&Payout{},
	}
}
