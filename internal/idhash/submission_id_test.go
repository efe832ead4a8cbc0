package idhash

import (
	"testing"
)

func TestComputePolicyHash(t *testing.T) {
	csv := "Capacity,Period 1\nLevel 1,LOW\n"

	got := ComputePolicyHash(csv)
	if len(got) != 64 {
		t.Errorf("ComputePolicyHash() length = %d, want 64", len(got))
	}

	// Verify determinism: same input should produce same output
	if got != ComputePolicyHash(csv) {
		t.Error("ComputePolicyHash() not deterministic")
	}

	if got == ComputePolicyHash(csv+"\n") {
		t.Error("Different CSV should produce different hash")
	}
}

func TestComputeSubmissionID(t *testing.T) {
	tests := []struct {
		name              string
		studentEmail      string
		assignmentVersion string
		policyHash        string
		createdAt         int64
	}{
		{
			name:              "basic submission",
			studentEmail:      "student@example.edu",
			assignmentVersion: "v1",
			policyHash:        "abc123",
			createdAt:         1704067234567,
		},
		{
			name:              "second submission",
			studentEmail:      "other@example.edu",
			assignmentVersion: "v1",
			policyHash:        "def456",
			createdAt:         1704067300000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSubmissionID(tt.studentEmail, tt.assignmentVersion, tt.policyHash, tt.createdAt)

			if got == "" {
				t.Fatal("ComputeSubmissionID() returned empty id")
			}

			got2 := ComputeSubmissionID(tt.studentEmail, tt.assignmentVersion, tt.policyHash, tt.createdAt)
			if got != got2 {
				t.Errorf("ComputeSubmissionID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeSubmissionID_DifferentInputs(t *testing.T) {
	base := ComputeSubmissionID("student@example.edu", "v1", "hash", 1000)

	if base == ComputeSubmissionID("other@example.edu", "v1", "hash", 1000) {
		t.Error("Different email should produce different id")
	}
	if base == ComputeSubmissionID("student@example.edu", "v2", "hash", 1000) {
		t.Error("Different assignment version should produce different id")
	}
	if base == ComputeSubmissionID("student@example.edu", "v1", "other", 1000) {
		t.Error("Different policy hash should produce different id")
	}
	if base == ComputeSubmissionID("student@example.edu", "v1", "hash", 2000) {
		t.Error("Different timestamp should produce different id")
	}
}

func TestComputeRunID_Determinism(t *testing.T) {
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		results[i] = ComputeRunID("policyhash", 42, 2000, 3)
	}

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Errorf("Determinism failed: results[%d]=%s != results[0]=%s", i, results[i], results[0])
		}
	}

	if results[0] == ComputeRunID("policyhash", 43, 2000, 3) {
		t.Error("Different seed should produce different id")
	}
	if results[0] == ComputeRunID("policyhash", 42, 1000, 3) {
		t.Error("Different trial count should produce different id")
	}
}
