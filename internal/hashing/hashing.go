// Package hashing provides the shared one-way digest primitive used for
// deterministic derivations that are part of the wire contract (one-time
// code generation). Credential storage and token tags use purpose-specific
// primitives and must not reach for this package.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hex returns the lowercase hex SHA-256 digest of data.
func Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HexString is a convenience wrapper for string inputs.
func HexString(s string) string {
	return Hex([]byte(s))
}
