package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus payout state machine
//
//	PROCESSING -> SUCCESS
//	PROCESSING -> FAILED (locked balance returns to pending)
type PayoutStatus string

const (
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusSuccess    PayoutStatus = "SUCCESS"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

// IsTerminal SUCCESS or FAILED
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusSuccess || s == PayoutStatusFailed
}

// Payout a request to move a worker's balance off-platform
type Payout struct {
	ID       string       `json:"id" gorm:"primaryKey;size:36"`
	WorkerID string       `json:"worker_id" gorm:"size:36;not null;index"`
	Amount   int64        `json:"amount" gorm:"not null;check:chk_payouts_amount,amount > 0"`
	Status   PayoutStatus `json:"status" gorm:"size:16;not null;index"`

	// Filled by the disbursement worker on settlement
	Signature string `json:"signature" gorm:"size:128"`

	// Queue dispatch tracking
	DispatchedAt      *time.Time `json:"dispatched_at"`
	DispatchAttempts  int        `json:"dispatch_attempts" gorm:"not null;default:0"`
	LastDispatchError string     `json:"last_dispatch_error,omitempty" gorm:"type:text"`

	SettledAt *time.Time `json:"settled_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
