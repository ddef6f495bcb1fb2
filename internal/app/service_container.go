package app

import (
	"context"
	"errors"
	"fmt"

	"crowdmint-backend/internal/clients"
	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/events"
	"crowdmint-backend/internal/handlers"
	"crowdmint-backend/internal/repository"
	"crowdmint-backend/internal/router"
	"crowdmint-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errQueueUnavailable returned for every dispatch when NATS is not configured
var errQueueUnavailable = errors.New("payout queue not configured")

// ServiceContainer wires repositories, clients and services
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Database
	DB *gorm.DB

	// Repositories
	UserRepo       repository.UserRepository
	WorkerRepo     repository.WorkerRepository
	TaskRepo       repository.TaskRepository
	SubmissionRepo repository.SubmissionRepository
	PayoutRepo     repository.PayoutRepository

	// Clients
	SolanaClient *clients.SolanaClient
	NATSClient   *clients.NATSClient // nil when nats.url is empty

	// Core Services
	EscrowVerifier    *services.EscrowVerifier
	TaskService       *services.TaskService
	AssignmentService *services.AssignmentService
	SubmissionService *services.SubmissionService
	PayoutService     *services.PayoutService
	EarningsService   *services.EarningsService
	Lifecycle         *services.TaskLifecycle

	// Background
	PayoutPublisher    *events.PayoutPublisher
	SettlementConsumer *events.SettlementConsumer
	RedispatchService  *services.PayoutRedispatchService
}

// NewServiceContainer builds every dependency. The database handle is owned
// by the caller.
func NewServiceContainer(ctx context.Context, cfg *config.Config, gdb *gorm.DB, logger *logrus.Logger) (*ServiceContainer, error) {
	logger.Info("🚀 Initializing Service Container...")

	c := &ServiceContainer{
		Config: cfg,
		Logger: logger,
		DB:     gdb,
	}

	c.initRepositories()

	if err := c.initClients(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	c.initCoreServices()
	c.initEventServices()

	logger.Info("✅ Service Container initialized successfully")
	return c, nil
}

func (c *ServiceContainer) initRepositories() {
	c.UserRepo = repository.NewUserRepository(c.DB)
	c.WorkerRepo = repository.NewWorkerRepository(c.DB)
	c.TaskRepo = repository.NewTaskRepository(c.DB)
	c.SubmissionRepo = repository.NewSubmissionRepository(c.DB)
	c.PayoutRepo = repository.NewPayoutRepository(c.DB)
}

func (c *ServiceContainer) initClients(ctx context.Context) error {
	solana, err := clients.NewSolanaClient(ctx, c.Config.Solana.RPCURL, c.Config.Solana.Commitment,
		c.Config.Solana.RequestTimeout(), c.Logger)
	if err != nil {
		return err
	}
	c.SolanaClient = solana

	// The queue is optional: without it payouts stay PROCESSING and the
	// redispatch sweep keeps recording the failure.
	if c.Config.NATS.URL == "" {
		c.Logger.Warn("⚠️ nats.url not set, payouts will not be dispatched")
		return nil
	}
	natsClient, err := clients.NewNATSClient(c.Config.NATS, c.Logger)
	if err != nil {
		return err
	}
	if err := natsClient.EnsureStream(); err != nil {
		natsClient.Close()
		return err
	}
	c.NATSClient = natsClient
	return nil
}

func (c *ServiceContainer) initCoreServices() {
	c.EscrowVerifier = services.NewEscrowVerifier(c.SolanaClient, c.Logger)

	c.TaskService = services.NewTaskService(c.DB, c.UserRepo, c.TaskRepo, c.SubmissionRepo, c.EscrowVerifier,
		services.TaskServiceConfig{
			EscrowAddress:         c.Config.Solana.EscrowAddress,
			DefaultMaxSubmissions: c.Config.Tasks.DefaultMaxSubmissions,
			MaxOptions:            c.Config.Tasks.MaxOptions,
		}, c.Logger)
	c.AssignmentService = services.NewAssignmentService(c.TaskRepo)
	c.SubmissionService = services.NewSubmissionService(c.DB, c.TaskRepo, c.WorkerRepo, c.SubmissionRepo,
		c.AssignmentService, c.Logger)

	var dispatcher services.Dispatcher = unavailableDispatcher{}
	if c.NATSClient != nil {
		c.PayoutPublisher = events.NewPayoutPublisher(c.NATSClient, c.Config.NATS.PayoutSubject, c.Logger)
		dispatcher = c.PayoutPublisher
	}
	c.PayoutService = services.NewPayoutService(c.DB, c.WorkerRepo, c.PayoutRepo, dispatcher,
		services.PayoutServiceConfig{
			RedispatchAfter:     c.Config.Payouts.RedispatchAge(),
			MaxDispatchAttempts: c.Config.Payouts.MaxDispatchAttempts,
			BatchSize:           c.Config.Payouts.BatchSize,
		}, c.Logger)
	c.EarningsService = services.NewEarningsService(c.WorkerRepo, c.SubmissionRepo, c.PayoutRepo)

	c.Lifecycle = services.NewTaskLifecycle(c.TaskService, c.AssignmentService, c.SubmissionService,
		c.PayoutService, c.EarningsService)
}

func (c *ServiceContainer) initEventServices() {
	c.RedispatchService = services.NewPayoutRedispatchService(c.PayoutService, c.Config.Payouts.RedispatchSchedule, c.Logger)
	if c.NATSClient != nil {
		c.SettlementConsumer = events.NewSettlementConsumer(c.NATSClient, c.Config.NATS.SettlementSubject,
			c.Config.NATS.SettlementDurable, c.PayoutService, c.Logger)
	}
}

// Router builds the HTTP engine over the container's services
func (c *ServiceContainer) Router() *gin.Engine {
	var natsStatus handlers.ConnectionChecker
	if c.NATSClient != nil {
		natsStatus = c.NATSClient
	}
	return router.SetupRouter(router.Dependencies{
		Config:        c.Config,
		Logger:        c.Logger,
		Tasks:         c.Lifecycle,
		Workers:       c.Lifecycle,
		PayoutAdmin:   c.Lifecycle,
		HealthHandler: handlers.NewHealthHandler(c.DB, natsStatus),
	})
}

// StartBackground starts the settlement consumer and the redispatch sweep
func (c *ServiceContainer) StartBackground() error {
	if c.SettlementConsumer != nil {
		if err := c.SettlementConsumer.Start(); err != nil {
			return fmt.Errorf("failed to start settlement consumer: %w", err)
		}
	}
	if err := c.RedispatchService.Start(); err != nil {
		return err
	}
	return nil
}

// Close stops background work and closes clients
func (c *ServiceContainer) Close() {
	if c.RedispatchService != nil {
		c.RedispatchService.Stop()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if c.SolanaClient != nil {
		c.SolanaClient.Close()
	}
}

type unavailableDispatcher struct{}

func (unavailableDispatcher) DispatchPayout(ctx context.Context, req services.PayoutRequest) error {
	return errQueueUnavailable
}
