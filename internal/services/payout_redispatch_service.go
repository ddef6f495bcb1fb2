package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PayoutRedispatchService runs the redispatch sweep on a cron schedule
type PayoutRedispatchService struct {
	payouts  *PayoutService
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPayoutRedispatchService creates a new PayoutRedispatchService.
// schedule is a standard cron spec or a descriptor such as "@every 1m".
func NewPayoutRedispatchService(payouts *PayoutService, schedule string, logger *logrus.Logger) *PayoutRedispatchService {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &PayoutRedispatchService{
		payouts:  payouts,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start registers the sweep and starts the scheduler
func (s *PayoutRedispatchService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid redispatch schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.WithField("schedule", s.schedule).Info("🚀 Payout redispatch sweep started")
	return nil
}

// Stop waits for a running sweep to finish
func (s *PayoutRedispatchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("🛑 Payout redispatch sweep stopped")
}

// RunOnce one bounded sweep
func (s *PayoutRedispatchService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.payouts.Redispatch(ctx); err != nil {
		s.logger.WithError(err).Error("❌ Payout redispatch sweep failed")
	}
}
