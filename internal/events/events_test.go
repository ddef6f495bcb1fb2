package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"crowdmint-backend/internal/models"
	"crowdmint-backend/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type published struct {
	subject string
	data    []byte
	msgID   string
	headers map[string]string
}

type fakePublisher struct {
	calls []published
	err   error
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, data []byte, msgID string, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, published{subject: subject, data: data, msgID: msgID, headers: headers})
	return nil
}

func TestPayoutPublisher_DispatchPayout(t *testing.T) {
	client := &fakePublisher{}
	publisher := NewPayoutPublisher(client, "crowdmint.payouts.requested", quietLogger())
	publisher.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }

	err := publisher.DispatchPayout(context.Background(), services.PayoutRequest{
		PayoutID:      "payout-1",
		WorkerID:      "worker-1",
		WorkerAddress: "Addr111",
		Amount:        250,
	})
	require.NoError(t, err)
	require.Len(t, client.calls, 1)

	call := client.calls[0]
	assert.Equal(t, "crowdmint.payouts.requested.worker-1", call.subject)
	assert.Equal(t, "payout-1-1700000000123", call.msgID)
	assert.Equal(t, "worker-1", call.headers[GroupHeader])
	assert.JSONEq(t, `{"payoutId":"payout-1","workerId":"worker-1","workerAddress":"Addr111","amount":250}`, string(call.data))
}

func TestPayoutPublisher_PublishError(t *testing.T) {
	client := &fakePublisher{err: errors.New("no responders")}
	publisher := NewPayoutPublisher(client, "p", quietLogger())

	err := publisher.DispatchPayout(context.Background(), services.PayoutRequest{PayoutID: "x", WorkerID: "w"})
	assert.EqualError(t, err, "no responders")
}

func TestDedupID_DiffersPerAttempt(t *testing.T) {
	at := time.Now()
	assert.NotEqual(t, DedupID("p", at), DedupID("p", at.Add(time.Millisecond)))
	assert.Equal(t, DedupID("p", at), DedupID("p", at))
}

type settleCall struct {
	payoutID  string
	status    models.PayoutStatus
	signature string
}

type fakeSettler struct {
	calls []settleCall
	err   error
}

func (s *fakeSettler) SettlePayout(ctx context.Context, payoutID string, status models.PayoutStatus, signature string) (*models.Payout, error) {
	s.calls = append(s.calls, settleCall{payoutID, status, signature})
	if s.err != nil {
		return nil, s.err
	}
	return &models.Payout{ID: payoutID, Status: status}, nil
}

func TestSettlementConsumer_Handle(t *testing.T) {
	body := func(msg SettlementMessage) []byte {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name      string
		data      []byte
		settleErr error
		want      Disposition
		settled   bool
	}{
		{
			name:    "success",
			data:    body(SettlementMessage{PayoutID: "p1", Status: "success", Signature: "sig"}),
			want:    Ack,
			settled: true,
		},
		{
			name: "malformed json",
			data: []byte("{"),
			want: Ack,
		},
		{
			name: "missing payout id",
			data: body(SettlementMessage{Status: "SUCCESS"}),
			want: Ack,
		},
		{
			name:      "unknown payout",
			data:      body(SettlementMessage{PayoutID: "p1", Status: "FAILED"}),
			settleErr: services.ErrNotFound,
			want:      Ack,
			settled:   true,
		},
		{
			name:      "conflicting settlement",
			data:      body(SettlementMessage{PayoutID: "p1", Status: "FAILED"}),
			settleErr: services.ErrPayoutAlreadySettled,
			want:      Ack,
			settled:   true,
		},
		{
			name:      "locked balance short",
			data:      body(SettlementMessage{PayoutID: "p1", Status: "SUCCESS"}),
			settleErr: services.ErrInsufficientBalance,
			want:      Ack,
			settled:   true,
		},
		{
			name:      "database down",
			data:      body(SettlementMessage{PayoutID: "p1", Status: "SUCCESS"}),
			settleErr: errors.New("connection refused"),
			want:      Nak,
			settled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &fakeSettler{err: tt.settleErr}
			consumer := NewSettlementConsumer(nil, "crowdmint.payouts.settled", "durable", settler, quietLogger())

			assert.Equal(t, tt.want, consumer.Handle(context.Background(), tt.data))
			if !tt.settled {
				assert.Empty(t, settler.calls)
				return
			}
			require.Len(t, settler.calls, 1)
			assert.Equal(t, "p1", settler.calls[0].payoutID)
		})
	}
}

func TestSettlementConsumer_NormalizesStatus(t *testing.T) {
	settler := &fakeSettler{}
	consumer := NewSettlementConsumer(nil, "s", "d", settler, quietLogger())

	consumer.Handle(context.Background(), []byte(`{"payoutId":"p1","status":" success ","signature":"abc"}`))
	require.Len(t, settler.calls, 1)
	assert.Equal(t, settleCall{"p1", models.PayoutStatusSuccess, "abc"}, settler.calls[0])
}
