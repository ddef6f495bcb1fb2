package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// lamportDecimals SOL has 9 fractional digits
const lamportDecimals = 9

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrAmountPrecision   = errors.New("amount has more than 9 decimal places")
	ErrAmountOverflow    = errors.New("amount too large")
)

// SOLToLamports converts a decimal SOL amount to lamports without rounding
func SOLToLamports(sol decimal.Decimal) (int64, error) {
	if !sol.IsPositive() {
		return 0, ErrNonPositiveAmount
	}
	lamports := sol.Shift(lamportDecimals)
	if !lamports.IsInteger() {
		return 0, ErrAmountPrecision
	}
	if lamports.GreaterThan(decimal.NewFromInt(maxInt64)) {
		return 0, ErrAmountOverflow
	}
	return lamports.IntPart(), nil
}

// LamportsToSOL formats lamports as a SOL decimal string
func LamportsToSOL(lamports int64) string {
	return decimal.New(lamports, -lamportDecimals).String()
}

// ParseSOL parses a decimal SOL string into lamports
func ParseSOL(value string) (int64, error) {
	sol, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return SOLToLamports(sol)
}

const maxInt64 = int64(^uint64(0) >> 1)

// Min returns the smaller of a or b
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
