package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSClient NATS / JetStream client for the payout queue
type NATSClient struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	cfg    config.NATSConfig
	logger *logrus.Logger
}

// NewNATSClient connects and opens a JetStream context
func NewNATSClient(cfg config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	connectTimeout := cfg.ConnectTimeout()
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	logger.WithField("timeout", connectTimeout).Info("🔌 Connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.Name("crowdmint-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWait)*time.Second),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	return &NATSClient{conn: conn, js: js, cfg: cfg, logger: logger}, nil
}

// EnsureStream creates the payout stream if it does not exist yet
func (c *NATSClient) EnsureStream() error {
	if _, err := c.js.StreamInfo(c.cfg.Stream); err == nil {
		c.logger.WithField("stream", c.cfg.Stream).Debug("JetStream stream already exists")
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", c.cfg.Stream, err)
	}

	_, err := c.js.AddStream(&nats.StreamConfig{
		Name: c.cfg.Stream,
		Subjects: []string{
			c.cfg.PayoutSubject + ".*",
			c.cfg.SettlementSubject,
		},
		Retention:  nats.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: time.Duration(c.cfg.DuplicateWindow) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", c.cfg.Stream, err)
	}

	c.logger.WithField("stream", c.cfg.Stream).Info("✅ JetStream stream created")
	return nil
}

// Publish sends data to subject. msgID is the JetStream de-duplication key.
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte, msgID string, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	ack, err := c.js.PublishMsg(msg, nats.MsgId(msgID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	if ack.Duplicate {
		c.logger.WithFields(logrus.Fields{
			"subject": subject,
			"msg_id":  msgID,
		}).Info("JetStream dropped duplicate publish")
	}
	return nil
}

// Subscribe creates a durable, manually acked JetStream subscription
func (c *NATSClient) Subscribe(subject, durable string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.js.Subscribe(subject, handler,
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.DeliverAll(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.logger.WithFields(logrus.Fields{
		"subject": subject,
		"durable": durable,
	}).Info("✅ JetStream subscription active")
	return sub, nil
}

// IsConnected reports the connection state for health checks
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains subscriptions and closes the connection
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
	metrics.NATSConnectionStatus.Set(0)
}
