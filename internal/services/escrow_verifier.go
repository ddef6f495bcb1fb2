package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdmint-backend/internal/clients"
	"crowdmint-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// ChainSource fetches confirmed transactions by signature
type ChainSource interface {
	GetTransaction(ctx context.Context, signature string) (*clients.ConfirmedTransaction, error)
}

// EscrowVerifier confirms that a transaction moved the escrow amount from
// the task owner into the platform wallet.
type EscrowVerifier struct {
	chain  ChainSource
	logger *logrus.Logger
}

// NewEscrowVerifier creates a new EscrowVerifier
func NewEscrowVerifier(chain ChainSource, logger *logrus.Logger) *EscrowVerifier {
	return &EscrowVerifier{chain: chain, logger: logger}
}

// VerifyEscrow returns nil when the transaction at signature credited exactly
// expectedAmount lamports to expectedPayee (account index 1) and was paid by
// expectedPayer (account index 0). Otherwise it returns an *EscrowError.
func (v *EscrowVerifier) VerifyEscrow(ctx context.Context, signature, expectedPayer, expectedPayee string, expectedAmount int64) error {
	err := v.verify(ctx, signature, expectedPayer, expectedPayee, expectedAmount)

	result := "ok"
	var escrowErr *EscrowError
	if errors.As(err, &escrowErr) {
		result = string(escrowErr.Reason)
		v.logger.WithFields(logrus.Fields{
			"signature": signature,
			"payer":     expectedPayer,
			"reason":    escrowErr.Reason,
		}).Warn("Escrow verification rejected")
	}
	metrics.EscrowVerifications.WithLabelValues(result).Inc()
	return err
}

func (v *EscrowVerifier) verify(ctx context.Context, signature, expectedPayer, expectedPayee string, expectedAmount int64) error {
	start := time.Now()
	tx, err := v.chain.GetTransaction(ctx, signature)
	metrics.EscrowLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return escrowError(EscrowVerificationFailed, "lookup failed", err)
	}

	if tx.Meta == nil {
		return escrowError(EscrowVerificationFailed, "transaction has no metadata", nil)
	}
	if tx.Meta.Failed() {
		return escrowError(EscrowVerificationFailed, "transaction failed on chain", nil)
	}

	keys := tx.Transaction.Message.AccountKeys
	pre, post := tx.Meta.PreBalances, tx.Meta.PostBalances
	if len(keys) < 2 || len(pre) < 2 || len(post) < 2 {
		return escrowError(EscrowVerificationFailed, "transaction has fewer than two accounts", nil)
	}

	received := int64(post[1]) - int64(pre[1])
	if received != expectedAmount {
		return escrowError(EscrowAmountMismatch, fmt.Sprintf("expected %d lamports, payee received %d", expectedAmount, received), nil)
	}
	if keys[1] != expectedPayee {
		return escrowError(EscrowWrongPayee, keys[1], nil)
	}
	if keys[0] != expectedPayer {
		return escrowError(EscrowWrongPayer, keys[0], nil)
	}
	return nil
}
