package utils

import (
	"strings"

	"github.com/mr-tron/base58"
)

const (
	solanaPublicKeyLen = 32
	solanaSignatureLen = 64
)

// NormalizeAddress trims whitespace. Base58 is case sensitive, so no case folding.
func NormalizeAddress(address string) string {
	return strings.TrimSpace(address)
}

// IsSolanaAddress checks for a base58 encoded 32 byte public key
func IsSolanaAddress(address string) bool {
	return decodesTo(address, solanaPublicKeyLen)
}

// IsSolanaSignature checks for a base58 encoded 64 byte transaction signature
func IsSolanaSignature(signature string) bool {
	return decodesTo(signature, solanaSignatureLen)
}

func decodesTo(value string, size int) bool {
	if value == "" {
		return false
	}
	raw, err := base58.Decode(value)
	if err != nil {
		return false
	}
	return len(raw) == size
}
