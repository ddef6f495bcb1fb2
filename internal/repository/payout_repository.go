package repository

import (
	"context"
	"time"

	"crowdmint-backend/internal/models"

	"gorm.io/gorm"
)

// PayoutRepository defines the interface for Payout data access
type PayoutRepository interface {
	WithTx(tx *gorm.DB) PayoutRepository

	Create(ctx context.Context, payout *models.Payout) error
	GetByID(ctx context.Context, id string) (*models.Payout, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Payout, error)

	// Dispatch tracking. Never touches balances or status.
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	RecordDispatchFailure(ctx context.Context, id string, reason string) error

	// Settle moves PROCESSING -> status. Reports whether the row was still PROCESSING.
	Settle(ctx context.Context, id string, status models.PayoutStatus, signature string, at time.Time) (bool, error)

	ListByStatus(ctx context.Context, status models.PayoutStatus, limit int) ([]*models.Payout, error)
	ListUndispatched(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]*models.Payout, error)
	ListRecentByWorker(ctx context.Context, workerID string, limit int) ([]*models.Payout, error)
	SumByWorkerAndStatus(ctx context.Context, workerID string, status models.PayoutStatus) (int64, error)
}

type payoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository creates a new PayoutRepository instance
func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	return &payoutRepository{db: tx}
}

func (r *payoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *payoutRepository) GetByID(ctx context.Context, id string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Payout, error) {
	var payout models.Payout
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatched_at":       at,
			"dispatch_attempts":   gorm.Expr("dispatch_attempts + 1"),
			"last_dispatch_error": "",
		}).Error
}

func (r *payoutRepository) RecordDispatchFailure(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatch_attempts":   gorm.Expr("dispatch_attempts + 1"),
			"last_dispatch_error": reason,
		}).Error
}

func (r *payoutRepository) Settle(ctx context.Context, id string, status models.PayoutStatus, signature string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusProcessing).
		Updates(map[string]interface{}{
			"status":     status,
			"signature":  signature,
			"settled_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *payoutRepository) ListByStatus(ctx context.Context, status models.PayoutStatus, limit int) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}

// ListUndispatched PROCESSING payouts that never reached the queue, oldest first
func (r *payoutRepository) ListUndispatched(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ? AND dispatched_at IS NULL", models.PayoutStatusProcessing).
		Where("created_at < ?", createdBefore).
		Where("dispatch_attempts < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}

func (r *payoutRepository) ListRecentByWorker(ctx context.Context, workerID string, limit int) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := r.db.WithContext(ctx).
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}

func (r *payoutRepository) SumByWorkerAndStatus(ctx context.Context, workerID string, status models.PayoutStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Payout{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("worker_id = ? AND status = ?", workerID, status).
		Scan(&total).Error
	return total, err
}
