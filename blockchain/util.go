package blockchain

import (
	"bytes"
	"crypto/sha256"
)

func hashOf(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func hexEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
