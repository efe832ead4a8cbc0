package storage

import (
	"context"

	"pricing-lab/internal/domain"
)

// SubmissionStore provides access to submissions storage.
type SubmissionStore interface {
	// Insert adds a new submission. Returns ErrDuplicateKey if submission_id exists.
	Insert(ctx context.Context, s *domain.Submission) error

	// GetByID retrieves a submission by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, submissionID string) (*domain.Submission, error)

	// GetByStudent retrieves all submissions for a student email, ordered by created_at ASC.
	GetByStudent(ctx context.Context, studentEmail string) ([]*domain.Submission, error)

	// GetAll retrieves all submissions, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Submission, error)

	// CountByStudent returns the number of submissions for a student email.
	CountByStudent(ctx context.Context, studentEmail string) (int, error)
}

// RunAggregateStore provides access to run_aggregates storage.
type RunAggregateStore interface {
	// Insert adds a new aggregate row. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, a *domain.RunAggregate) error

	// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, aggregates []*domain.RunAggregate) error

	// GetByID retrieves an aggregate row by run_id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunAggregate, error)

	// GetByPolicyHash retrieves all rows for a policy, ordered by created_at ASC.
	GetByPolicyHash(ctx context.Context, policyHash string) ([]*domain.RunAggregate, error)

	// GetAll retrieves all rows, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.RunAggregate, error)
}
