package repository

import (
	"context"

	"crowdmint-backend/internal/models"

	"gorm.io/gorm"
)

// SubmissionRepository defines the interface for Submission data access.
// Submissions are append-only.
type SubmissionRepository interface {
	WithTx(tx *gorm.DB) SubmissionRepository

	Create(ctx context.Context, submission *models.Submission) error
	Exists(ctx context.Context, workerID, taskID string) (bool, error)
	CountByTask(ctx context.Context, taskID string) (int64, error)
	// CountByOption option id -> submissions, for every task in taskIDs
	CountByOption(ctx context.Context, taskIDs ...string) (map[string]int64, error)
	ListRecentByWorker(ctx context.Context, workerID string, limit int) ([]*models.Submission, error)
	TotalsByWorker(ctx context.Context, workerID string) (earned int64, count int64, err error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository instance
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx}
}

// Create inserts the submission. Callers check IsUniqueViolation for a
// repeated (worker, task) pair.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Task").Create(submission).Error
}

func (r *submissionRepository) Exists(ctx context.Context, workerID, taskID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("worker_id = ? AND task_id = ?", workerID, taskID).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepository) CountByTask(ctx context.Context, taskID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("task_id = ?", taskID).
		Count(&count).Error
	return count, err
}

type optionCount struct {
	OptionID string
	Total    int64
}

func (r *submissionRepository) CountByOption(ctx context.Context, taskIDs ...string) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(taskIDs) == 0 {
		return counts, nil
	}

	var rows []optionCount
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("option_id, COUNT(*) AS total").
		Where("task_id IN ?", taskIDs).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.OptionID] = row.Total
	}
	return counts, nil
}

// ListRecentByWorker newest first, task preloaded for its title
func (r *submissionRepository) ListRecentByWorker(ctx context.Context, workerID string, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.WithContext(ctx).
		Preload("Task").
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

type workerTotals struct {
	Earned int64
	Total  int64
}

func (r *submissionRepository) TotalsByWorker(ctx context.Context, workerID string) (int64, int64, error) {
	var totals workerTotals
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("COALESCE(SUM(amount), 0) AS earned, COUNT(*) AS total").
		Where("worker_id = ?", workerID).
		Scan(&totals).Error
	if err != nil {
		return 0, 0, err
	}
	return totals.Earned, totals.Total, nil
}
