package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputePolicyHash computes a deterministic policy_hash using SHA256 of
// the canonical CSV rendering. Spelling variants of the same policy hash
// identically because canonicalization happens before hashing.
// Returns hex-encoded hash (64 characters).
func ComputePolicyHash(canonicalCSV string) string {
	hash := sha256.Sum256([]byte(canonicalCSV))
	return hex.EncodeToString(hash[:])
}
