package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/storage"
)

// SubmissionStore implements storage.SubmissionStore using PostgreSQL.
type SubmissionStore struct {
	pool *Pool
}

// NewSubmissionStore creates a new SubmissionStore.
func NewSubmissionStore(pool *Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SubmissionStore = (*SubmissionStore)(nil)

const submissionColumns = `
	submission_id, student_email, student_name, assignment_version,
	capacity_i, periods_t, trials, seed, last_minute_k,
	philosophy, policy_csv, aggregates_json, sample_trial_json,
	created_at
`

// Insert adds a new submission. Returns ErrDuplicateKey if submission_id exists.
func (s *SubmissionStore) Insert(ctx context.Context, sub *domain.Submission) error {
	if sub == nil || sub.SubmissionID == "" || sub.StudentEmail == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO submissions (` + submissionColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14
		)
	`

	_, err := s.pool.Exec(ctx, query,
		sub.SubmissionID, sub.StudentEmail, sub.StudentName, sub.AssignmentVersion,
		sub.CapacityI, sub.PeriodsT, sub.Trials, sub.Seed, sub.LastMinuteK,
		sub.Philosophy, sub.PolicyCSV, sub.AggregatesJSON, sub.SampleTrialJSON,
		sub.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by its ID. Returns ErrNotFound if not exists.
func (s *SubmissionStore) GetByID(ctx context.Context, submissionID string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE submission_id = $1`

	row := s.pool.QueryRow(ctx, query, submissionID)
	sub, err := scanSubmission(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get submission by id: %w", err)
	}
	return sub, nil
}

// GetByStudent retrieves all submissions for a student email, ordered by created_at ASC.
func (s *SubmissionStore) GetByStudent(ctx context.Context, studentEmail string) ([]*domain.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE student_email = $1
		ORDER BY created_at ASC, submission_id ASC
	`

	rows, err := s.pool.Query(ctx, query, studentEmail)
	if err != nil {
		return nil, fmt.Errorf("get submissions by student: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// GetAll retrieves all submissions, ordered by created_at ASC.
func (s *SubmissionStore) GetAll(ctx context.Context) ([]*domain.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		ORDER BY created_at ASC, submission_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// CountByStudent returns the number of submissions for a student email.
func (s *SubmissionStore) CountByStudent(ctx context.Context, studentEmail string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE student_email = $1`, studentEmail,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submissions by student: %w", err)
	}
	return count, nil
}

// scanSubmission scans a single row into a Submission.
func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var sub domain.Submission

	err := row.Scan(
		&sub.SubmissionID, &sub.StudentEmail, &sub.StudentName, &sub.AssignmentVersion,
		&sub.CapacityI, &sub.PeriodsT, &sub.Trials, &sub.Seed, &sub.LastMinuteK,
		&sub.Philosophy, &sub.PolicyCSV, &sub.AggregatesJSON, &sub.SampleTrialJSON,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// scanSubmissions scans multiple rows into a slice of Submission.
func scanSubmissions(rows pgx.Rows) ([]*domain.Submission, error) {
	var subs []*domain.Submission

	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}

	return subs, nil
}
