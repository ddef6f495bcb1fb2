package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTaskService_CreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	in := f.fundedInput(t, owner.Address, "0.1", 3, "cat", "dog")
	task, err := f.tasks.CreateTask(ctx, owner.ID, in)
	require.NoError(t, err)

	assert.Equal(t, int64(100_000_000), task.Amount)
	assert.Equal(t, 3, task.MaximumSubmissions)
	assert.Equal(t, int64(33_333_333), task.Reward())
	assert.Equal(t, int64(1), task.Dust())
	assert.False(t, task.Done)

	var stored models.Task
	require.NoError(t, f.db.Preload("Options").Where("id = ?", task.ID).Take(&stored).Error)
	require.Len(t, stored.Options, 2)
	assert.Equal(t, in.Signature, stored.Signature)
	assert.Equal(t, owner.ID, stored.UserID)
}

func TestTaskService_CreateTask_DefaultMaxSubmissions(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	task, err := f.tasks.CreateTask(context.Background(), owner.ID, f.fundedInput(t, owner.Address, "1", 0, "yes", "no"))
	require.NoError(t, err)
	assert.Equal(t, 100, task.MaximumSubmissions)
	assert.Equal(t, int64(10_000_000), task.Reward())
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	tests := []struct {
		name   string
		mutate func(in *CreateTaskInput)
	}{
		{"no options", func(in *CreateTaskInput) { in.Options = nil }},
		{"too many options", func(in *CreateTaskInput) {
			in.Options = []OptionInput{{TextValue: "a"}, {TextValue: "b"}, {TextValue: "c"}, {TextValue: "d"}, {TextValue: "e"}}
		}},
		{"unknown type", func(in *CreateTaskInput) { in.Type = "AUDIO" }},
		{"signature not base58", func(in *CreateTaskInput) { in.Signature = "0OIl" }},
		{"signature wrong length", func(in *CreateTaskInput) { in.Signature = randomAddress(t) }},
		{"zero amount", func(in *CreateTaskInput) { in.Amount = sol("0") }},
		{"negative amount", func(in *CreateTaskInput) { in.Amount = sol("-1") }},
		{"sub-lamport precision", func(in *CreateTaskInput) { in.Amount = sol("0.0000000001") }},
		{"reward below one lamport", func(in *CreateTaskInput) {
			in.Amount = sol("0.000000002")
			in.MaximumSubmissions = 3
		}},
		{"negative max submissions", func(in *CreateTaskInput) { in.MaximumSubmissions = -1 }},
		{"empty option", func(in *CreateTaskInput) { in.Options = []OptionInput{{}} }},
		{"image task without image", func(in *CreateTaskInput) { in.Type = models.TaskTypeImage }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.fundedInput(t, owner.Address, "0.5", 5, "a", "b")
			tt.mutate(&in)

			_, err := f.tasks.CreateTask(context.Background(), owner.ID, in)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskService_CreateTask_ImageOptions(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	in := f.fundedInput(t, owner.Address, "0.2", 2)
	in.Type = models.TaskTypeImage
	in.Options = []OptionInput{
		{ImageURL: "https://cdn.example.com/a.png"},
		{ImageURL: "https://cdn.example.com/b.png"},
	}

	task, err := f.tasks.CreateTask(context.Background(), owner.ID, in)
	require.NoError(t, err)
	require.Len(t, task.Options, 2)
	require.NotNil(t, task.Options[0].ImageURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *task.Options[0].ImageURL)
	assert.Nil(t, task.Options[0].TextValue)
}

func TestTaskService_CreateTask_UnknownOwner(t *testing.T) {
	f := newFixture(t)
	in := f.fundedInput(t, randomAddress(t), "0.1", 1, "a")

	_, err := f.tasks.CreateTask(context.Background(), "missing-owner", in)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestTaskService_CreateTask_EscrowGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	t.Run("amount mismatch", func(t *testing.T) {
		in := f.fundedInput(t, owner.Address, "0.1", 1, "a")
		in.Amount = sol("0.2")
		_, err := f.tasks.CreateTask(ctx, owner.ID, in)
		assertEscrowReason(t, err, EscrowAmountMismatch)
	})

	t.Run("paid by someone else", func(t *testing.T) {
		in := f.fundedInput(t, randomAddress(t), "0.1", 1, "a")
		_, err := f.tasks.CreateTask(ctx, owner.ID, in)
		assertEscrowReason(t, err, EscrowWrongPayer)
	})

	t.Run("unknown signature", func(t *testing.T) {
		in := f.fundedInput(t, owner.Address, "0.1", 1, "a")
		in.Signature = randomSignature(t)
		_, err := f.tasks.CreateTask(ctx, owner.ID, in)
		assertEscrowReason(t, err, EscrowVerificationFailed)
	})

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "rejected escrow must not create a task")
	require.NoError(t, f.db.Model(&models.Option{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskService_CreateTask_RollsBackOnOptionFailure(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_options", func(tx *gorm.DB) {
		if tx.Statement.Table == "options" {
			_ = tx.AddError(errors.New("option insert failed"))
		}
	}))

	_, err := f.tasks.CreateTask(context.Background(), owner.ID, f.fundedInput(t, owner.Address, "0.1", 1, "a", "b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "option insert failed")

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "task row must roll back with its options")
	require.NoError(t, f.db.Model(&models.Option{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskService_CreateTask_SignatureReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	in := f.fundedInput(t, owner.Address, "0.1", 1, "a")
	_, err := f.tasks.CreateTask(ctx, owner.ID, in)
	require.NoError(t, err)

	_, err = f.tasks.CreateTask(ctx, owner.ID, in)
	assertEscrowReason(t, err, EscrowSignatureReused)
}

func TestTaskService_GetTaskResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, randomAddress(t))

	task, err := f.tasks.CreateTask(ctx, owner.ID, f.fundedInput(t, owner.Address, "0.3", 3, "red", "green", "blue"))
	require.NoError(t, err)

	red, green := task.Options[0].ID, task.Options[1].ID
	for i, optionID := range []string{red, red, green} {
		worker := testutil.CreateWorker(t, f.db, randomAddress(t), 0)
		_, err := f.submissions.Submit(ctx, worker.ID, task.ID, optionID)
		require.NoError(t, err, "submission %d", i)
	}

	result, err := f.tasks.GetTaskResult(ctx, task.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, result.Options, 3)
	assert.Equal(t, int64(2), result.Options[red].Count)
	assert.Equal(t, int64(1), result.Options[green].Count)
	assert.Equal(t, int64(0), result.Options[task.Options[2].ID].Count)
	assert.True(t, result.Task.Done)

	stranger := testutil.CreateUser(t, f.db, randomAddress(t))
	_, err = f.tasks.GetTaskResult(ctx, task.ID, stranger.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.tasks.GetTaskResult(ctx, "no-such-task", owner.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTaskService_ListTasksForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, randomAddress(t))
	other := testutil.CreateUser(t, f.db, randomAddress(t))

	older := testutil.CreateTask(t, f.db, owner.ID, 1_000, 10, time.Now().Add(-time.Hour), "a", "b")
	newer := testutil.CreateTask(t, f.db, owner.ID, 1_000, 10, time.Now(), "c")
	testutil.CreateTask(t, f.db, other.ID, 1_000, 10, time.Now(), "d")

	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 0)
	_, err := f.submissions.Submit(ctx, worker.ID, older.ID, older.Options[1].ID)
	require.NoError(t, err)

	summaries, err := f.tasks.ListTasksForOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].Task.ID)
	assert.Equal(t, older.ID, summaries[1].Task.ID)

	require.Len(t, summaries[1].Options, 2)
	assert.Equal(t, int64(0), summaries[1].Options[0].Count)
	assert.Equal(t, int64(1), summaries[1].Options[1].Count)

	empty, err := f.tasks.ListTasksForOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func assertEscrowReason(t *testing.T, err error, reason EscrowReason) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEscrowInvalid))
	var escrowErr *EscrowError
	require.True(t, errors.As(err, &escrowErr), "got %v", err)
	assert.Equal(t, reason, escrowErr.Reason)
}
