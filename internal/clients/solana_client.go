package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// ErrTransactionNotFound the node has no finalized transaction for the signature
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionMeta execution metadata of a confirmed transaction
type TransactionMeta struct {
	Err          json.RawMessage `json:"err"`
	Fee          uint64          `json:"fee"`
	PreBalances  []uint64        `json:"preBalances"`
	PostBalances []uint64        `json:"postBalances"`
}

// Failed reports whether the transaction landed with an execution error
func (m *TransactionMeta) Failed() bool {
	return len(m.Err) > 0 && string(m.Err) != "null"
}

// TransactionMessage account list of the transaction ("json" encoding)
type TransactionMessage struct {
	AccountKeys     []string `json:"accountKeys"`
	RecentBlockhash string   `json:"recentBlockhash"`
}

// TransactionBody signed payload
type TransactionBody struct {
	Signatures []string           `json:"signatures"`
	Message    TransactionMessage `json:"message"`
}

// ConfirmedTransaction getTransaction result
type ConfirmedTransaction struct {
	Slot        uint64           `json:"slot"`
	BlockTime   *int64           `json:"blockTime"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction TransactionBody  `json:"transaction"`
}

// SolanaClient read-only Solana JSON-RPC client. The transport is
// go-ethereum's JSON-RPC 2.0 client, which speaks the same envelope.
type SolanaClient struct {
	rpc        *rpc.Client
	commitment string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewSolanaClient dials the RPC endpoint. HTTP endpoints connect lazily.
func NewSolanaClient(ctx context.Context, url, commitment string, timeout time.Duration, logger *logrus.Logger) (*SolanaClient, error) {
	if url == "" {
		return nil, errors.New("solana rpc url is required")
	}
	if commitment == "" {
		commitment = "finalized"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to dial solana rpc: %w", err)
	}

	return &SolanaClient{
		rpc:        client,
		commitment: commitment,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// GetTransaction fetches a transaction by signature. Versioned transactions
// are accepted. The lookup is bounded by the client timeout.
func (c *SolanaClient) GetTransaction(ctx context.Context, signature string) (*ConfirmedTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result *ConfirmedTransaction
	err := c.rpc.CallContext(ctx, &result, "getTransaction", signature, map[string]interface{}{
		"encoding":                       "json",
		"commitment":                     c.commitment,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			c.logger.WithFields(logrus.Fields{
				"signature": signature,
				"code":      rpcErr.ErrorCode(),
			}).Warn("getTransaction rejected by node")
		}
		return nil, fmt.Errorf("getTransaction failed: %w", err)
	}
	if result == nil {
		return nil, ErrTransactionNotFound
	}
	return result, nil
}

// Close releases the underlying connection
func (c *SolanaClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}
