package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotFound             = errors.New("not found")
	ErrEscrowInvalid        = errors.New("escrow verification failed")
	ErrAlreadySubmitted     = errors.New("already submitted for this task")
	ErrTaskMismatch         = errors.New("task is not the worker's current task")
	ErrInvalidOption        = errors.New("option does not belong to task")
	ErrNoTaskAvailable      = errors.New("no task available")
	ErrTaskClosed           = errors.New("task already reached its submission limit")
	ErrNothingToPayout      = errors.New("no pending balance to pay out")
	ErrDispatchFailed       = errors.New("payout dispatch failed")
	ErrPayoutAlreadySettled = errors.New("payout already settled with a different status")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

// EscrowReason why an escrow transaction was rejected
type EscrowReason string

const (
	EscrowAmountMismatch     EscrowReason = "AmountMismatch"
	EscrowWrongPayee         EscrowReason = "WrongPayee"
	EscrowWrongPayer         EscrowReason = "WrongPayer"
	EscrowVerificationFailed EscrowReason = "VerificationFailed"
	EscrowSignatureReused    EscrowReason = "SignatureReused"
)

// EscrowError carries the rejection reason. errors.Is(err, ErrEscrowInvalid) holds.
type EscrowError struct {
	Reason EscrowReason
	Detail string
	Cause  error
}

func (e *EscrowError) Error() string {
	msg := fmt.Sprintf("escrow verification failed: %s", e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EscrowError) Is(target error) bool {
	return target == ErrEscrowInvalid
}

func (e *EscrowError) Unwrap() error {
	return e.Cause
}

func escrowError(reason EscrowReason, detail string, cause error) *EscrowError {
	return &EscrowError{Reason: reason, Detail: detail, Cause: cause}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
