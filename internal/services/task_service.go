package services

import (
	"context"
	"fmt"
	"strings"

	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/repository"
	"crowdmint-backend/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EscrowChecker verifies the escrow transaction backing a new task
type EscrowChecker interface {
	VerifyEscrow(ctx context.Context, signature, expectedPayer, expectedPayee string, expectedAmount int64) error
}

// OptionInput one answer choice supplied at task creation
type OptionInput struct {
	ImageURL  string
	TextValue string
}

// CreateTaskInput task creation request. Amount is in SOL.
type CreateTaskInput struct {
	Title              string
	Type               models.TaskType
	Options            []OptionInput
	Amount             decimal.Decimal
	Signature          string
	MaximumSubmissions int
}

// OptionResult one option with its submission count
type OptionResult struct {
	Option models.Option
	Count  int64
}

// TaskResult per-option tally of one task
type TaskResult struct {
	Task    *models.Task
	Options map[string]OptionResult // keyed by option id
}

// TaskSummary task with its options in creation order
type TaskSummary struct {
	Task    *models.Task
	Options []OptionResult
}

// TaskServiceConfig creation limits and the escrow destination
type TaskServiceConfig struct {
	EscrowAddress         string
	DefaultMaxSubmissions int
	MaxOptions            int
}

// TaskService creates escrow-funded tasks and reports their results
type TaskService struct {
	db          *gorm.DB
	users       repository.UserRepository
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	escrow      EscrowChecker
	cfg         TaskServiceConfig
	logger      *logrus.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	db *gorm.DB,
	users repository.UserRepository,
	tasks repository.TaskRepository,
	submissions repository.SubmissionRepository,
	escrow EscrowChecker,
	cfg TaskServiceConfig,
	logger *logrus.Logger,
) *TaskService {
	if cfg.DefaultMaxSubmissions <= 0 {
		cfg.DefaultMaxSubmissions = 100
	}
	if cfg.MaxOptions <= 0 {
		cfg.MaxOptions = 10
	}
	return &TaskService{
		db:          db,
		users:       users,
		tasks:       tasks,
		submissions: submissions,
		escrow:      escrow,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateTask verifies the escrow payment and persists the task with its
// options. The chain lookup finishes before the insert transaction opens.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*models.Task, error) {
	lamports, options, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if repository.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task owner: %w", err)
	}

	used, err := s.tasks.ExistsBySignature(ctx, in.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to check escrow signature: %w", err)
	}
	if used {
		return nil, escrowError(EscrowSignatureReused, in.Signature, nil)
	}

	if err := s.escrow.VerifyEscrow(ctx, in.Signature, owner.Address, s.cfg.EscrowAddress, lamports); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:             owner.ID,
		Title:              in.Title,
		Type:               in.Type,
		Amount:             lamports,
		Signature:          in.Signature,
		MaximumSubmissions: in.MaximumSubmissions,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tasks.WithTx(tx).Create(ctx, task, options)
	})
	if repository.IsUniqueViolation(err) {
		// another request claimed the signature after the pre-check
		return nil, escrowError(EscrowSignatureReused, in.Signature, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	metrics.TasksCreated.Inc()
	s.logger.WithFields(logrus.Fields{
		"task_id":         task.ID,
		"owner_id":        owner.ID,
		"amount":          lamports,
		"max_submissions": task.MaximumSubmissions,
		"reward":          task.Reward(),
	}).Info("✅ Task created")
	return task, nil
}

func (s *TaskService) validate(in *CreateTaskInput) (int64, []models.Option, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Signature = strings.TrimSpace(in.Signature)

	if !in.Type.Valid() {
		return 0, nil, invalidInput("unknown task type %q", in.Type)
	}
	if len(in.Options) == 0 {
		return 0, nil, invalidInput("at least one option is required")
	}
	if len(in.Options) > s.cfg.MaxOptions {
		return 0, nil, invalidInput("at most %d options are allowed", s.cfg.MaxOptions)
	}
	if !utils.IsSolanaSignature(in.Signature) {
		return 0, nil, invalidInput("signature is not a base58 transaction signature")
	}

	if in.MaximumSubmissions == 0 {
		in.MaximumSubmissions = s.cfg.DefaultMaxSubmissions
	}
	if in.MaximumSubmissions < 1 {
		return 0, nil, invalidInput("maximumSubmissions must be at least 1")
	}

	lamports, err := utils.SOLToLamports(in.Amount)
	if err != nil {
		return 0, nil, invalidInput("amount: %v", err)
	}
	if lamports < int64(in.MaximumSubmissions) {
		return 0, nil, invalidInput("amount of %d lamports cannot fund %d submissions", lamports, in.MaximumSubmissions)
	}

	options := make([]models.Option, 0, len(in.Options))
	for i, opt := range in.Options {
		image := strings.TrimSpace(opt.ImageURL)
		text := strings.TrimSpace(opt.TextValue)
		if image == "" && text == "" {
			return 0, nil, invalidInput("option %d has neither imageUrl nor textValue", i)
		}
		if in.Type == models.TaskTypeImage && image == "" {
			return 0, nil, invalidInput("option %d of an IMAGE task needs an imageUrl", i)
		}
		var option models.Option
		if image != "" {
			option.ImageURL = &image
		}
		if text != "" {
			option.TextValue = &text
		}
		options = append(options, option)
	}
	return lamports, options, nil
}

// GetTaskResult tallies submissions per option. Every option is present,
// including those nobody picked.
func (s *TaskService) GetTaskResult(ctx context.Context, taskID, ownerID string) (*TaskResult, error) {
	task, err := s.tasks.GetByIDForOwner(ctx, taskID, ownerID)
	if repository.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	counts, err := s.submissions.CountByOption(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	result := &TaskResult{Task: task, Options: make(map[string]OptionResult, len(task.Options))}
	for _, option := range task.Options {
		result.Options[option.ID] = OptionResult{Option: option, Count: counts[option.ID]}
	}
	return result, nil
}

// ListTasksForOwner newest first, each option with its count
func (s *TaskService) ListTasksForOwner(ctx context.Context, ownerID string) ([]TaskSummary, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return []TaskSummary{}, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	counts, err := s.submissions.CountByOption(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		options := make([]OptionResult, 0, len(task.Options))
		for _, option := range task.Options {
			options = append(options, OptionResult{Option: option, Count: counts[option.ID]})
		}
		summaries = append(summaries, TaskSummary{Task: task, Options: options})
	}
	return summaries, nil
}
