package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PayoutRequest message handed to the disbursement worker. Each publish
// carries a fresh "<payoutId>-<unixMillis>" message id, so a republish after a
// lost dispatched stamp is not dropped by the queue. The disbursement worker
// must deduplicate on PayoutID and pay a payout at most once.
type PayoutRequest struct {
	PayoutID      string `json:"payoutId"`
	WorkerID      string `json:"workerId"`
	WorkerAddress string `json:"workerAddress"`
	Amount        int64  `json:"amount"` // lamports
}

// Dispatcher enqueues payout requests for the disbursement worker
type Dispatcher interface {
	DispatchPayout(ctx context.Context, req PayoutRequest) error
}

// PayoutResult outcome of RequestPayout. Dispatched is false when the queue
// rejected the message; the payout stays PROCESSING for the redispatch sweep.
type PayoutResult struct {
	PayoutID   string
	Amount     int64
	Status     models.PayoutStatus
	Dispatched bool
}

// RedispatchReport one sweep over undispatched payouts
type RedispatchReport struct {
	Scanned    int
	Dispatched int
	Failed     int
}

// PayoutServiceConfig redispatch tuning
type PayoutServiceConfig struct {
	RedispatchAfter     time.Duration
	MaxDispatchAttempts int
	BatchSize           int
}

// PayoutService moves worker balances through PROCESSING -> SUCCESS | FAILED
type PayoutService struct {
	db         *gorm.DB
	workers    repository.WorkerRepository
	payouts    repository.PayoutRepository
	dispatcher Dispatcher
	cfg        PayoutServiceConfig
	logger     *logrus.Logger
	now        func() time.Time
}

// NewPayoutService creates a new PayoutService
func NewPayoutService(
	db *gorm.DB,
	workers repository.WorkerRepository,
	payouts repository.PayoutRepository,
	dispatcher Dispatcher,
	cfg PayoutServiceConfig,
	logger *logrus.Logger,
) *PayoutService {
	if cfg.MaxDispatchAttempts <= 0 {
		cfg.MaxDispatchAttempts = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &PayoutService{
		db:         db,
		workers:    workers,
		payouts:    payouts,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestPayout locks the worker's whole pending balance into a new
// PROCESSING payout, then hands it to the disbursement queue. A failed
// dispatch does not undo the commit.
func (s *PayoutService) RequestPayout(ctx context.Context, workerID string) (*PayoutResult, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if repository.IsNotFound(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	if worker.PendingBalance <= 0 {
		return nil, ErrNothingToPayout
	}

	var payout *models.Payout
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workers := s.workers.WithTx(tx)

		locked, err := workers.GetByIDForUpdate(ctx, workerID)
		if err != nil {
			return fmt.Errorf("failed to lock worker: %w", err)
		}
		if locked.PendingBalance <= 0 {
			return ErrNothingToPayout
		}

		amount := locked.PendingBalance
		if err := workers.LockPending(ctx, workerID, amount); err != nil {
			if errors.Is(err, repository.ErrBalanceConflict) {
				return ErrNothingToPayout
			}
			return fmt.Errorf("failed to lock pending balance: %w", err)
		}

		payout = &models.Payout{
			WorkerID: workerID,
			Amount:   amount,
			Status:   models.PayoutStatusProcessing,
		}
		if err := s.payouts.WithTx(tx).Create(ctx, payout); err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PayoutsRequested.Inc()
	s.logger.WithFields(logrus.Fields{
		"payout_id": payout.ID,
		"worker_id": workerID,
		"amount":    payout.Amount,
	}).Info("💸 Payout requested")

	dispatchErr := s.dispatch(ctx, payout, worker.Address)
	return &PayoutResult{
		PayoutID:   payout.ID,
		Amount:     payout.Amount,
		Status:     payout.Status,
		Dispatched: dispatchErr == nil,
	}, nil
}

// dispatch publishes the payout and records the outcome on the row
func (s *PayoutService) dispatch(ctx context.Context, payout *models.Payout, workerAddress string) error {
	// bookkeeping must land even if the caller has gone away
	bookkeeping := context.WithoutCancel(ctx)
	fields := logrus.Fields{
		"payout_id": payout.ID,
		"worker_id": payout.WorkerID,
	}

	var err error
	if s.dispatcher == nil {
		err = errors.New("no dispatcher configured")
	} else {
		err = s.dispatcher.DispatchPayout(ctx, PayoutRequest{
			PayoutID:      payout.ID,
			WorkerID:      payout.WorkerID,
			WorkerAddress: workerAddress,
			Amount:        payout.Amount,
		})
	}

	if err != nil {
		metrics.PayoutDispatchFailures.Inc()
		s.logger.WithFields(fields).WithError(err).Error("❌ Payout dispatch failed, left for redispatch")
		if recordErr := s.payouts.RecordDispatchFailure(bookkeeping, payout.ID, err.Error()); recordErr != nil {
			s.logger.WithFields(fields).WithError(recordErr).Error("Failed to record dispatch failure")
		}
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	if markErr := s.payouts.MarkDispatched(bookkeeping, payout.ID, s.now()); markErr != nil {
		// the message is out; a missing stamp only means a duplicate publish later
		s.logger.WithFields(fields).WithError(markErr).Warn("Failed to stamp dispatched payout")
	}
	return nil
}

// SettlePayout applies the disbursement result. SUCCESS releases the locked
// amount, FAILED returns it to pending. Repeating the same terminal status is
// a no-op.
func (s *PayoutService) SettlePayout(ctx context.Context, payoutID string, status models.PayoutStatus, signature string) (*models.Payout, error) {
	if !status.IsTerminal() {
		return nil, invalidInput("settlement status must be SUCCESS or FAILED, got %q", status)
	}

	var (
		settled *models.Payout
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payouts := s.payouts.WithTx(tx)

		payout, err := payouts.GetByIDForUpdate(ctx, payoutID)
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock payout: %w", err)
		}
		if payout.Status.IsTerminal() {
			if payout.Status != status {
				return ErrPayoutAlreadySettled
			}
			settled = payout
			return nil
		}

		at := s.now()
		ok, err := payouts.Settle(ctx, payoutID, status, signature, at)
		if err != nil {
			return fmt.Errorf("failed to settle payout: %w", err)
		}
		if !ok {
			return ErrPayoutAlreadySettled
		}

		workers := s.workers.WithTx(tx)
		if status == models.PayoutStatusSuccess {
			err = workers.ReleaseLocked(ctx, payout.WorkerID, payout.Amount)
		} else {
			err = workers.UnlockToPending(ctx, payout.WorkerID, payout.Amount)
		}
		if errors.Is(err, repository.ErrBalanceConflict) {
			return fmt.Errorf("%w: locked balance does not cover payout %s", ErrInsufficientBalance, payoutID)
		}
		if err != nil {
			return fmt.Errorf("failed to move locked balance: %w", err)
		}

		payout.Status = status
		payout.Signature = signature
		payout.SettledAt = &at
		settled = payout
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.PayoutsSettled.WithLabelValues(string(status)).Inc()
		s.logger.WithFields(logrus.Fields{
			"payout_id": payoutID,
			"worker_id": settled.WorkerID,
			"status":    status,
			"signature": signature,
		}).Info("✅ Payout settled")
	}
	return settled, nil
}

// Redispatch republishes PROCESSING payouts that never reached the queue
func (s *PayoutService) Redispatch(ctx context.Context) (*RedispatchReport, error) {
	cutoff := s.now().Add(-s.cfg.RedispatchAfter)
	payouts, err := s.payouts.ListUndispatched(ctx, cutoff, s.cfg.MaxDispatchAttempts, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list undispatched payouts: %w", err)
	}

	report := &RedispatchReport{Scanned: len(payouts)}
	for _, payout := range payouts {
		worker, err := s.workers.GetByID(ctx, payout.WorkerID)
		if err != nil {
			s.logger.WithField("payout_id", payout.ID).WithError(err).Error("Failed to load payout worker")
			report.Failed++
			continue
		}
		if err := s.dispatch(ctx, payout, worker.Address); err != nil {
			report.Failed++
			continue
		}
		metrics.PayoutsRedispatched.Inc()
		report.Dispatched++
	}

	if report.Scanned > 0 {
		s.logger.WithFields(logrus.Fields{
			"scanned":    report.Scanned,
			"dispatched": report.Dispatched,
			"failed":     report.Failed,
		}).Info("🔁 Payout redispatch sweep finished")
	}
	return report, nil
}

// ListPayouts oldest first. An empty status lists PROCESSING payouts.
func (s *PayoutService) ListPayouts(ctx context.Context, status models.PayoutStatus, limit int) ([]*models.Payout, error) {
	if status == "" {
		status = models.PayoutStatusProcessing
	}
	if status != models.PayoutStatusProcessing && !status.IsTerminal() {
		return nil, invalidInput("unknown payout status %q", status)
	}
	if limit <= 0 || limit > s.cfg.BatchSize {
		limit = s.cfg.BatchSize
	}
	payouts, err := s.payouts.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return payouts, nil
}
