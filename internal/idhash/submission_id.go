package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeSubmissionID computes a deterministic submission_id using SHA256.
// Formula: SHA256(student_email|assignment_version|policy_hash|created_at)
// Returns the first 16 hash bytes base58-encoded, short enough for URLs.
func ComputeSubmissionID(
	studentEmail string,
	assignmentVersion string,
	policyHash string,
	createdAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		studentEmail,
		assignmentVersion,
		policyHash,
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(policy_hash|seed|trials|last_minute_k)
// Two runs of the same policy with the same parameters share an id.
func ComputeRunID(
	policyHash string,
	seed int64,
	trials int,
	lastMinuteK int,
) string {
	data := fmt.Sprintf("%s|%d|%d|%d",
		policyHash,
		seed,
		trials,
		lastMinuteK,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
