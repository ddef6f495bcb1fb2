package repository

import (
	"context"
	"errors"

	"crowdmint-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository defines the interface for Task and Option data access
type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository

	Create(ctx context.Context, task *models.Task, options []models.Option) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Task, error)
	GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Task, error)
	ExistsBySignature(ctx context.Context, signature string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error)

	// NextForWorker returns the oldest open task the worker has not answered,
	// or (nil, nil) when there is none.
	NextForWorker(ctx context.Context, workerID string) (*models.Task, error)

	// MarkDone flips done false -> true. Reports whether this call flipped it.
	MarkDone(ctx context.Context, id string) (bool, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository instance
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) WithTx(tx *gorm.DB) TaskRepository {
	return &taskRepository{db: tx}
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the task row, then its options with TaskID and Position set
func (r *taskRepository) Create(ctx context.Context, task *models.Task, options []models.Option) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(task).Error; err != nil {
		return err
	}
	if len(options) == 0 {
		return nil
	}
	for i := range options {
		options[i].TaskID = task.ID
		options[i].Position = i
	}
	if err := db.Create(&options).Error; err != nil {
		return err
	}
	task.Options = options
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("id = ?", id).
		Take(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByIDForUpdate row-locks the task. Options are not loaded.
func (r *taskRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("id = ? AND user_id = ?", id, ownerID).
		Take(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ExistsBySignature(ctx context.Context, signature string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("signature = ?", signature).
		Count(&count).Error
	return count > 0, err
}

// ListByOwner newest first
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) NextForWorker(ctx context.Context, workerID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("done = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM submissions s WHERE s.task_id = tasks.id AND s.worker_id = ?)", workerID).
		Order("created_at ASC").
		Order("id ASC").
		Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) MarkDone(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND done = ?", id, false).
		Update("done", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
