package utils

import (
	"crypto/rand"
	"math/big"
)

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBookingReference returns a human-readable booking reference such
// as "BT7K2M9QX4PL".
func NewBookingReference() string {
	return "BT" + randomUpper(10)
}

// NewTransactionReference returns a payment transaction reference such
// as "TB3F8Q1ZK7WM2N".
func NewTransactionReference() string {
	return "TB" + randomUpper(12)
}

func randomUpper(n int) string {
	max := big.NewInt(int64(len(referenceAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = 'X'
			continue
		}
		b[i] = referenceAlphabet[idx.Int64()]
	}
	return string(b)
}
