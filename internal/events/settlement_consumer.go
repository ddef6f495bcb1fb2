package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/services"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const eventPayoutSettled = "PayoutSettled"

// SettlementMessage result reported by the disbursement worker
type SettlementMessage struct {
	PayoutID  string `json:"payoutId"`
	Status    string `json:"status"`
	Signature string `json:"signature"`
}

// Settler applies a settlement to the ledger
type Settler interface {
	SettlePayout(ctx context.Context, payoutID string, status models.PayoutStatus, signature string) (*models.Payout, error)
}

// Subscriber the JetStream subscribe call the consumer needs
type Subscriber interface {
	Subscribe(subject, durable string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// Disposition what to tell JetStream about a message
type Disposition int

const (
	// Ack processed, or never processable
	Ack Disposition = iota
	// Nak redeliver later
	Nak
)

// SettlementConsumer applies settlement results from the queue
type SettlementConsumer struct {
	client  Subscriber
	subject string
	durable string
	settler Settler
	timeout time.Duration
	logger  *logrus.Logger
}

// NewSettlementConsumer creates a new SettlementConsumer
func NewSettlementConsumer(client Subscriber, subject, durable string, settler Settler, logger *logrus.Logger) *SettlementConsumer {
	return &SettlementConsumer{
		client:  client,
		subject: subject,
		durable: durable,
		settler: settler,
		timeout: 15 * time.Second,
		logger:  logger,
	}
}

// Start subscribes with a durable consumer. The connection drain on
// shutdown stops delivery.
func (c *SettlementConsumer) Start() error {
	_, err := c.client.Subscribe(c.subject, c.durable, c.handleMsg)
	return err
}

func (c *SettlementConsumer) handleMsg(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var err error
	if c.Handle(ctx, msg.Data) == Ack {
		err = msg.Ack()
	} else {
		err = msg.Nak()
	}
	if err != nil {
		c.logger.WithError(err).Warn("Failed to acknowledge settlement message")
	}
}

// Handle settles one message. Malformed messages and results the ledger
// rejects for good are acked so they do not loop; anything else is retried.
func (c *SettlementConsumer) Handle(ctx context.Context, data []byte) Disposition {
	metrics.NATSMessagesReceived.WithLabelValues(eventPayoutSettled).Inc()

	var msg SettlementMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.PayoutID == "" {
		metrics.NATSMessagesFailed.WithLabelValues(eventPayoutSettled, "decode_error").Inc()
		c.logger.WithField("body", string(data)).Error("❌ Dropping malformed settlement message")
		return Ack
	}

	fields := logrus.Fields{
		"payout_id": msg.PayoutID,
		"status":    msg.Status,
	}
	status := models.PayoutStatus(strings.ToUpper(strings.TrimSpace(msg.Status)))
	_, err := c.settler.SettlePayout(ctx, msg.PayoutID, status, msg.Signature)
	switch {
	case err == nil:
		c.logger.WithFields(fields).Info("📥 Settlement applied")
		return Ack
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrPayoutAlreadySettled),
		errors.Is(err, services.ErrInsufficientBalance):
		metrics.NATSMessagesFailed.WithLabelValues(eventPayoutSettled, "rejected").Inc()
		c.logger.WithFields(fields).WithError(err).Error("❌ Settlement rejected")
		return Ack
	default:
		metrics.NATSMessagesFailed.WithLabelValues(eventPayoutSettled, "process_error").Inc()
		c.logger.WithFields(fields).WithError(err).Warn("Settlement failed, will retry")
		return Nak
	}
}
