package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPayout(t *testing.T, f *fixture, id string) *models.Payout {
	t.Helper()
	var payout models.Payout
	require.NoError(t, f.db.Where("id = ?", id).Take(&payout).Error)
	return &payout
}

func TestPayoutService_RequestPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 750)

	result, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), result.Amount)
	assert.Equal(t, models.PayoutStatusProcessing, result.Status)
	assert.True(t, result.Dispatched)

	reloaded := testutil.ReloadWorker(t, f.db, worker.ID)
	assert.Equal(t, int64(0), reloaded.PendingBalance)
	assert.Equal(t, int64(750), reloaded.LockedBalance)

	sent := f.dispatcher.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, PayoutRequest{
		PayoutID:      result.PayoutID,
		WorkerID:      worker.ID,
		WorkerAddress: worker.Address,
		Amount:        750,
	}, sent[0])

	payout := loadPayout(t, f, result.PayoutID)
	assert.Equal(t, models.PayoutStatusProcessing, payout.Status)
	assert.Empty(t, payout.Signature)
	assert.NotNil(t, payout.DispatchedAt)
	assert.Equal(t, 1, payout.DispatchAttempts)

	_, err = f.payouts.RequestPayout(ctx, worker.ID)
	assert.True(t, errors.Is(err, ErrNothingToPayout))
}

func TestPayoutService_RequestPayout_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payouts.RequestPayout(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	broke := testutil.CreateWorker(t, f.db, randomAddress(t), 0)
	_, err = f.payouts.RequestPayout(ctx, broke.ID)
	assert.True(t, errors.Is(err, ErrNothingToPayout))

	var count int64
	require.NoError(t, f.db.Model(&models.Payout{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPayoutService_RequestPayout_DispatchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 500)
	f.dispatcher.fail(errQueueDown)

	result, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err, "dispatch failure must not fail the request")
	assert.False(t, result.Dispatched)

	reloaded := testutil.ReloadWorker(t, f.db, worker.ID)
	assert.Equal(t, int64(0), reloaded.PendingBalance)
	assert.Equal(t, int64(500), reloaded.LockedBalance)

	payout := loadPayout(t, f, result.PayoutID)
	assert.Equal(t, models.PayoutStatusProcessing, payout.Status)
	assert.Nil(t, payout.DispatchedAt)
	assert.Equal(t, 1, payout.DispatchAttempts)
	assert.Contains(t, payout.LastDispatchError, "queue unavailable")
}

func TestPayoutService_RequestPayout_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 1_000)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payouts.RequestPayout(ctx, worker.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.True(t, errors.Is(err, ErrNothingToPayout), "got %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	reloaded := testutil.ReloadWorker(t, f.db, worker.ID)
	assert.Equal(t, int64(0), reloaded.PendingBalance)
	assert.Equal(t, int64(1_000), reloaded.LockedBalance)
}

func TestPayoutService_SettlePayout_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 900)
	result, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)

	settled, err := f.payouts.SettlePayout(ctx, result.PayoutID, models.PayoutStatusSuccess, "txsig")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusSuccess, settled.Status)

	reloaded := testutil.ReloadWorker(t, f.db, worker.ID)
	assert.Equal(t, int64(0), reloaded.PendingBalance)
	assert.Equal(t, int64(0), reloaded.LockedBalance)

	payout := loadPayout(t, f, result.PayoutID)
	assert.Equal(t, "txsig", payout.Signature)
	assert.NotNil(t, payout.SettledAt)

	_, err = f.payouts.SettlePayout(ctx, result.PayoutID, models.PayoutStatusSuccess, "txsig")
	assert.NoError(t, err, "repeating the same settlement is a no-op")
	assert.Equal(t, int64(0), testutil.ReloadWorker(t, f.db, worker.ID).LockedBalance)

	_, err = f.payouts.SettlePayout(ctx, result.PayoutID, models.PayoutStatusFailed, "")
	assert.True(t, errors.Is(err, ErrPayoutAlreadySettled))
}

func TestPayoutService_SettlePayout_FailedReturnsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 400)
	result, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)

	_, err = f.payouts.SettlePayout(ctx, result.PayoutID, models.PayoutStatusFailed, "")
	require.NoError(t, err)

	reloaded := testutil.ReloadWorker(t, f.db, worker.ID)
	assert.Equal(t, int64(400), reloaded.PendingBalance)
	assert.Equal(t, int64(0), reloaded.LockedBalance)

	_, err = f.payouts.SettlePayout(ctx, result.PayoutID, models.PayoutStatusFailed, "")
	require.NoError(t, err)
	assert.Equal(t, int64(400), testutil.ReloadWorker(t, f.db, worker.ID).PendingBalance, "compensation applies once")

	// the returned balance can be requested again
	again, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), again.Amount)
}

func TestPayoutService_SettlePayout_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payouts.SettlePayout(ctx, "missing", models.PayoutStatusSuccess, "sig")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.payouts.SettlePayout(ctx, "missing", models.PayoutStatusProcessing, "")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = f.payouts.SettlePayout(ctx, "missing", "DONE", "")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPayoutService_Redispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 300)

	f.dispatcher.fail(errQueueDown)
	result, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)
	require.False(t, result.Dispatched)

	report, err := f.payouts.Redispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned, "fresh payouts wait for the redispatch age")

	f.payouts.now = func() time.Time { return time.Now().Add(time.Hour) }

	report, err = f.payouts.Redispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Failed)

	f.dispatcher.fail(nil)
	report, err = f.payouts.Redispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dispatched)

	payout := loadPayout(t, f, result.PayoutID)
	assert.NotNil(t, payout.DispatchedAt)
	assert.Equal(t, 3, payout.DispatchAttempts)
	require.Len(t, f.dispatcher.messages(), 1)

	report, err = f.payouts.Redispatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned, "dispatched payouts are not republished")
}

func TestPayoutService_Redispatch_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worker := testutil.CreateWorker(t, f.db, randomAddress(t), 300)
	f.dispatcher.fail(errQueueDown)
	f.payouts.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err := f.payouts.RequestPayout(ctx, worker.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.payouts.Redispatch(ctx)
		require.NoError(t, err)
	}

	var payout models.Payout
	require.NoError(t, f.db.Take(&payout).Error)
	assert.Equal(t, 3, payout.DispatchAttempts)
}

func TestPayoutService_ListPayouts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateWorker(t, f.db, randomAddress(t), 100)
	b := testutil.CreateWorker(t, f.db, randomAddress(t), 200)

	first, err := f.payouts.RequestPayout(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.payouts.RequestPayout(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.payouts.SettlePayout(ctx, first.PayoutID, models.PayoutStatusSuccess, "sig")
	require.NoError(t, err)

	processing, err := f.payouts.ListPayouts(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, b.ID, processing[0].WorkerID)

	succeeded, err := f.payouts.ListPayouts(ctx, models.PayoutStatusSuccess, 10)
	require.NoError(t, err)
	require.Len(t, succeeded, 1)
	assert.Equal(t, first.PayoutID, succeeded[0].ID)

	_, err = f.payouts.ListPayouts(ctx, "PAID", 10)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
