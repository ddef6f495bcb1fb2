package repository

import (
	"context"
	"fmt"

	"crowdmint-backend/internal/models"

	"gorm.io/gorm"
)

// WorkerRepository defines the interface for Worker data access.
// Balance mutations are guarded single-statement updates; callers run them
// inside a transaction bound with WithTx.
type WorkerRepository interface {
	WithTx(tx *gorm.DB) WorkerRepository
	GetByID(ctx context.Context, id string) (*models.Worker, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Worker, error)
	GetByAddress(ctx context.Context, address string) (*models.Worker, error)
	FindOrCreateByAddress(ctx context.Context, address string) (*models.Worker, error)

	// Balance moves
	CreditPending(ctx context.Context, id string, amount int64) error
	LockPending(ctx context.Context, id string, amount int64) error
	ReleaseLocked(ctx context.Context, id string, amount int64) error
	UnlockToPending(ctx context.Context, id string, amount int64) error
}

type workerRepository struct {
	db *gorm.DB
}

// NewWorkerRepository creates a new WorkerRepository instance
func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) WithTx(tx *gorm.DB) WorkerRepository {
	return &workerRepository{db: tx}
}

func (r *workerRepository) GetByID(ctx context.Context, id string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// GetByIDForUpdate row-locks the worker for the rest of the transaction
func (r *workerRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Worker, error) {
	var worker models.Worker
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&worker).Error
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) GetByAddress(ctx context.Context, address string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).Where("address = ?", address).Take(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) FindOrCreateByAddress(ctx context.Context, address string) (*models.Worker, error) {
	worker := models.Worker{Address: address}
	err := r.db.WithContext(ctx).Where("address = ?", address).FirstOrCreate(&worker).Error
	if IsUniqueViolation(err) {
		return r.GetByAddress(ctx, address)
	}
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

// CreditPending pending += amount. gorm.ErrRecordNotFound if the worker is missing.
func (r *workerRepository) CreditPending(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	result := r.db.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pending_balance": gorm.Expr("pending_balance + ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockPending pending -= amount, locked += amount, only if pending covers amount
func (r *workerRepository) LockPending(ctx context.Context, id string, amount int64) error {
	return r.guardedMove(ctx, id, "pending_balance >= ?", amount, map[string]interface{}{
		"pending_balance": gorm.Expr("pending_balance - ?", amount),
		"locked_balance":  gorm.Expr("locked_balance + ?", amount),
	})
}

// ReleaseLocked locked -= amount after a successful disbursement
func (r *workerRepository) ReleaseLocked(ctx context.Context, id string, amount int64) error {
	return r.guardedMove(ctx, id, "locked_balance >= ?", amount, map[string]interface{}{
		"locked_balance": gorm.Expr("locked_balance - ?", amount),
	})
}

// UnlockToPending locked -> pending after a failed disbursement
func (r *workerRepository) UnlockToPending(ctx context.Context, id string, amount int64) error {
	return r.guardedMove(ctx, id, "locked_balance >= ?", amount, map[string]interface{}{
		"locked_balance":  gorm.Expr("locked_balance - ?", amount),
		"pending_balance": gorm.Expr("pending_balance + ?", amount),
	})
}

func (r *workerRepository) guardedMove(ctx context.Context, id, guard string, amount int64, updates map[string]interface{}) error {
	if amount <= 0 {
		return fmt.Errorf("balance move must be positive, got %d", amount)
	}
	result := r.db.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ?", id).
		Where(guard, amount).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBalanceConflict
	}
	return nil
}
