package clickhouse

import (
	"context"
	"fmt"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/storage"
)

// RunAggregateStore implements storage.RunAggregateStore using ClickHouse.
type RunAggregateStore struct {
	conn *Conn
}

// NewRunAggregateStore creates a new RunAggregateStore.
func NewRunAggregateStore(conn *Conn) *RunAggregateStore {
	return &RunAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunAggregateStore = (*RunAggregateStore)(nil)

const runAggregateColumns = `
	run_id, policy_hash, seed, trials,
	avg_revenue, std_revenue, fill_rate, avg_price, last_minute_share, regret,
	sales_low, sales_med, sales_high,
	created_at
`

// Insert adds a new aggregate row. Returns ErrDuplicateKey if run_id exists.
func (s *RunAggregateStore) Insert(ctx context.Context, a *domain.RunAggregate) error {
	if a == nil || a.RunID == "" || a.PolicyHash == "" {
		return storage.ErrInvalidInput
	}

	// MergeTree does not enforce uniqueness, so append-only semantics need
	// an explicit pre-check.
	exists, err := s.exists(ctx, a.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO run_aggregates (` + runAggregateColumns + `) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?, ?,
			?
		)
	`

	err = s.conn.Exec(ctx, query,
		a.RunID, a.PolicyHash, a.Seed, uint32(a.Trials),
		a.AvgRevenue, a.StdRevenue, a.FillRate, a.AvgPrice, a.LastMinuteShare, a.Regret,
		uint64(a.SalesLow), uint64(a.SalesMed), uint64(a.SalesHigh),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run aggregate: %w", err)
	}
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *RunAggregateStore) InsertBulk(ctx context.Context, aggregates []*domain.RunAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(aggregates))
	for _, a := range aggregates {
		if a == nil || a.RunID == "" || a.PolicyHash == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[a.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[a.RunID] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, a := range aggregates {
		exists, err := s.exists(ctx, a.RunID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO run_aggregates (`+runAggregateColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range aggregates {
		err = batch.Append(
			a.RunID, a.PolicyHash, a.Seed, uint32(a.Trials),
			a.AvgRevenue, a.StdRevenue, a.FillRate, a.AvgPrice, a.LastMinuteShare, a.Regret,
			uint64(a.SalesLow), uint64(a.SalesMed), uint64(a.SalesHigh),
			a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByID retrieves an aggregate row by run_id. Returns ErrNotFound if not exists.
func (s *RunAggregateStore) GetByID(ctx context.Context, runID string) (*domain.RunAggregate, error) {
	query := `
		SELECT ` + runAggregateColumns + `
		FROM run_aggregates FINAL
		WHERE run_id = ?
		LIMIT 1
	`

	row := s.conn.QueryRow(ctx, query, runID)

	a, err := scanRunAggregate(row)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

// GetByPolicyHash retrieves all rows for a policy, ordered by created_at ASC.
func (s *RunAggregateStore) GetByPolicyHash(ctx context.Context, policyHash string) ([]*domain.RunAggregate, error) {
	query := `
		SELECT ` + runAggregateColumns + `
		FROM run_aggregates FINAL
		WHERE policy_hash = ?
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, policyHash)
	if err != nil {
		return nil, fmt.Errorf("query by policy hash: %w", err)
	}
	defer rows.Close()

	return scanRunAggregates(rows)
}

// GetAll retrieves all rows, ordered by created_at ASC.
func (s *RunAggregateStore) GetAll(ctx context.Context) ([]*domain.RunAggregate, error) {
	query := `
		SELECT ` + runAggregateColumns + `
		FROM run_aggregates FINAL
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanRunAggregates(rows)
}

// exists checks if a row with the given run_id exists.
func (s *RunAggregateStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM run_aggregates FINAL WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRow is the single-row scan interface shared by QueryRow results and Rows.
type chRow interface {
	Scan(dest ...interface{}) error
}

// chRows is the iteration interface for scanning result sets.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanRunAggregate scans one row into a RunAggregate.
func scanRunAggregate(row chRow) (*domain.RunAggregate, error) {
	var (
		a         domain.RunAggregate
		trials    uint32
		salesLow  uint64
		salesMed  uint64
		salesHigh uint64
	)

	err := row.Scan(
		&a.RunID, &a.PolicyHash, &a.Seed, &trials,
		&a.AvgRevenue, &a.StdRevenue, &a.FillRate, &a.AvgPrice, &a.LastMinuteShare, &a.Regret,
		&salesLow, &salesMed, &salesHigh,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Trials = int(trials)
	a.SalesLow = int64(salesLow)
	a.SalesMed = int64(salesMed)
	a.SalesHigh = int64(salesHigh)
	return &a, nil
}

// scanRunAggregates scans multiple rows into a slice.
func scanRunAggregates(rows chRows) ([]*domain.RunAggregate, error) {
	var aggregates []*domain.RunAggregate

	for rows.Next() {
		a, err := scanRunAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run aggregate row: %w", err)
		}
		aggregates = append(aggregates, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run aggregate rows: %w", err)
	}

	return aggregates, nil
}
