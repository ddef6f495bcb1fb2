package services

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"crowdmint-backend/internal/clients"
	"crowdmint-backend/internal/repository"
	"crowdmint-backend/internal/testutil"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeChain serves canned transactions by signature
type fakeChain struct {
	mu  sync.Mutex
	txs map[string]*clients.ConfirmedTransaction
	err error
}

func newFakeChain() *fakeChain {
	return &fakeChain{txs: make(map[string]*clients.ConfirmedTransaction)}
}

func (c *fakeChain) GetTransaction(ctx context.Context, signature string) (*clients.ConfirmedTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	tx, ok := c.txs[signature]
	if !ok {
		return nil, clients.ErrTransactionNotFound
	}
	return tx, nil
}

// put registers a transfer of amount lamports from payer to payee
func (c *fakeChain) put(signature, payer, payee string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[signature] = transferTx(payer, payee, amount)
}

func transferTx(payer, payee string, amount int64) *clients.ConfirmedTransaction {
	const fee = 5000
	return &clients.ConfirmedTransaction{
		Slot: 1,
		Meta: &clients.TransactionMeta{
			Fee:          fee,
			PreBalances:  []uint64{10_000_000_000, 1_000_000_000, 1},
			PostBalances: []uint64{10_000_000_000 - uint64(amount) - fee, 1_000_000_000 + uint64(amount), 1},
		},
		Transaction: clients.TransactionBody{
			Signatures: []string{"x"},
			Message: clients.TransactionMessage{
				AccountKeys: []string{payer, payee, "11111111111111111111111111111111"},
			},
		},
	}
}

// fakeDispatcher records dispatched payouts; err makes every dispatch fail
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []PayoutRequest
	err  error
}

func (d *fakeDispatcher) DispatchPayout(ctx context.Context, req PayoutRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, req)
	return nil
}

func (d *fakeDispatcher) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDispatcher) messages() []PayoutRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]PayoutRequest(nil), d.sent...)
}

var errQueueDown = errors.New("queue unavailable")

type fixture struct {
	db         *gorm.DB
	chain      *fakeChain
	dispatcher *fakeDispatcher
	escrow     string

	tasks       *TaskService
	assignment  *AssignmentService
	submissions *SubmissionService
	payouts     *PayoutService
	earnings    *EarningsService
	lifecycle   *TaskLifecycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := testutil.NewDB(t)
	logger := testutil.Logger()
	chain := newFakeChain()
	dispatcher := &fakeDispatcher{}
	escrow := randomAddress(t)

	users := repository.NewUserRepository(gdb)
	workers := repository.NewWorkerRepository(gdb)
	tasks := repository.NewTaskRepository(gdb)
	submissions := repository.NewSubmissionRepository(gdb)
	payouts := repository.NewPayoutRepository(gdb)

	taskSvc := NewTaskService(gdb, users, tasks, submissions, NewEscrowVerifier(chain, logger), TaskServiceConfig{
		EscrowAddress:         escrow,
		DefaultMaxSubmissions: 100,
		MaxOptions:            4,
	}, logger)
	assignment := NewAssignmentService(tasks)
	submissionSvc := NewSubmissionService(gdb, tasks, workers, submissions, assignment, logger)
	payoutSvc := NewPayoutService(gdb, workers, payouts, dispatcher, PayoutServiceConfig{
		RedispatchAfter:     2 * time.Minute,
		MaxDispatchAttempts: 3,
		BatchSize:           50,
	}, logger)
	earnings := NewEarningsService(workers, submissions, payouts)

	return &fixture{
		db:          gdb,
		chain:       chain,
		dispatcher:  dispatcher,
		escrow:      escrow,
		tasks:       taskSvc,
		assignment:  assignment,
		submissions: submissionSvc,
		payouts:     payoutSvc,
		earnings:    earnings,
		lifecycle:   NewTaskLifecycle(taskSvc, assignment, submissionSvc, payoutSvc, earnings),
	}
}

func randomBase58(t *testing.T, size int) string {
	t.Helper()
	raw := make([]byte, size)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return base58.Encode(raw)
}

func randomAddress(t *testing.T) string {
	return randomBase58(t, 32)
}

func randomSignature(t *testing.T) string {
	return randomBase58(t, 64)
}

func sol(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// fundedInput registers an escrow transfer for the task and returns the input
func (f *fixture) fundedInput(t *testing.T, payer string, amount string, maxSubmissions int, labels ...string) CreateTaskInput {
	t.Helper()
	signature := randomSignature(t)
	lamports := decimal.RequireFromString(amount).Shift(9).IntPart()
	f.chain.put(signature, payer, f.escrow, lamports)

	options := make([]OptionInput, 0, len(labels))
	for _, label := range labels {
		options = append(options, OptionInput{TextValue: label})
	}
	return CreateTaskInput{
		Title:              "Pick the best caption",
		Type:               "TEXT",
		Options:            options,
		Amount:             sol(amount),
		Signature:          signature,
		MaximumSubmissions: maxSubmissions,
	}
}
