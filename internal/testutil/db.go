// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"crowdmint-backend/internal/db"
	"crowdmint-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database private to the test. One
// connection, so concurrent callers queue on the pool like they would on
// PostgreSQL row locks.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crowdmint.db")
	gdb, err := db.OpenDialector(sqlite.Open(path + "?_pragma=busy_timeout(5000)"))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// Logger discards output
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// CreateUser inserts a requester
func CreateUser(t *testing.T, gdb *gorm.DB, address string) *models.User {
	t.Helper()
	user := &models.User{Address: address}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

// CreateWorker inserts a worker with the given pending balance
func CreateWorker(t *testing.T, gdb *gorm.DB, address string, pending int64) *models.Worker {
	t.Helper()
	worker := &models.Worker{Address: address, PendingBalance: pending}
	require.NoError(t, gdb.Create(worker).Error)
	return worker
}

// CreateTask inserts an open task with text options. createdAt orders
// assignment; zero means now.
func CreateTask(t *testing.T, gdb *gorm.DB, ownerID string, amount int64, maxSubmissions int, createdAt time.Time, labels ...string) *models.Task {
	t.Helper()
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	task := &models.Task{
		UserID:             ownerID,
		Title:              "fixture",
		Type:               models.TaskTypeText,
		Amount:             amount,
		Signature:          "sig-" + uuid.NewString(),
		MaximumSubmissions: maxSubmissions,
		CreatedAt:          createdAt,
	}
	options := make([]models.Option, 0, len(labels))
	for _, label := range labels {
		value := label
		options = append(options, models.Option{TextValue: &value})
	}
	require.NoError(t, gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Create(task).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].TaskID = task.ID
			options[i].Position = i
		}
		if len(options) == 0 {
			return nil
		}
		return tx.Create(&options).Error
	}))
	task.Options = options
	return task
}

// ReloadWorker reads balances back from the database
func ReloadWorker(t *testing.T, gdb *gorm.DB, id string) *models.Worker {
	t.Helper()
	var worker models.Worker
	require.NoError(t, gdb.WithContext(context.Background()).Where("id = ?", id).Take(&worker).Error)
	return &worker
}
