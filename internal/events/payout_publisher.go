package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crowdmint-backend/internal/metrics"
	"crowdmint-backend/internal/services"

	"github.com/sirupsen/logrus"
)

const (
	eventPayoutRequested = "PayoutRequested"

	// GroupHeader carries the ordering key. The disbursement worker handles
	// one payout per worker at a time.
	GroupHeader = "Crowdmint-Group-Id"
)

// Publisher the JetStream publish call the payout publisher needs
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, msgID string, headers map[string]string) error
}

// PayoutPublisher sends payout requests to the disbursement queue
type PayoutPublisher struct {
	client        Publisher
	subjectPrefix string
	logger        *logrus.Logger
	now           func() time.Time
}

// NewPayoutPublisher creates a new PayoutPublisher. subjectPrefix gets the
// worker id appended.
func NewPayoutPublisher(client Publisher, subjectPrefix string, logger *logrus.Logger) *PayoutPublisher {
	return &PayoutPublisher{
		client:        client,
		subjectPrefix: subjectPrefix,
		logger:        logger,
		now:           time.Now,
	}
}

// PayoutSubject per-worker subject, e.g. crowdmint.payouts.requested.<workerId>
func PayoutSubject(prefix, workerID string) string {
	return prefix + "." + workerID
}

// DedupID JetStream Nats-Msg-Id for one dispatch attempt
func DedupID(payoutID string, at time.Time) string {
	return fmt.Sprintf("%s-%d", payoutID, at.UnixMilli())
}

// DispatchPayout implements services.Dispatcher
func (p *PayoutPublisher) DispatchPayout(ctx context.Context, req services.PayoutRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode payout request: %w", err)
	}

	subject := PayoutSubject(p.subjectPrefix, req.WorkerID)
	msgID := DedupID(req.PayoutID, p.now())
	if err := p.client.Publish(ctx, subject, data, msgID, map[string]string{GroupHeader: req.WorkerID}); err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(eventPayoutRequested, "publish_error").Inc()
		return err
	}

	metrics.NATSMessagesPublished.WithLabelValues(eventPayoutRequested).Inc()
	p.logger.WithFields(logrus.Fields{
		"payout_id": req.PayoutID,
		"subject":   subject,
		"msg_id":    msgID,
	}).Info("📤 Payout request published")
	return nil
}
