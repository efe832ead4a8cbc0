package memory

import (
	"context"
	"sort"
	"sync"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/storage"
)

// RunAggregateStore is an in-memory implementation of storage.RunAggregateStore.
type RunAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunAggregate // keyed by run_id
}

// NewRunAggregateStore creates a new in-memory run aggregate store.
func NewRunAggregateStore() *RunAggregateStore {
	return &RunAggregateStore{
		data: make(map[string]*domain.RunAggregate),
	}
}

var _ storage.RunAggregateStore = (*RunAggregateStore)(nil)

// Insert adds a new aggregate row. Returns ErrDuplicateKey if run_id exists.
func (s *RunAggregateStore) Insert(_ context.Context, a *domain.RunAggregate) error {
	if a == nil || a.RunID == "" || a.PolicyHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.RunID] = copyAggregate(a)
	return nil
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *RunAggregateStore) InsertBulk(_ context.Context, aggregates []*domain.RunAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track ids in this batch to detect intra-batch duplicates
	batchIDs := make(map[string]struct{}, len(aggregates))

	// First pass: check for duplicates (existing + intra-batch)
	for _, a := range aggregates {
		if a == nil || a.RunID == "" || a.PolicyHash == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[a.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchIDs[a.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		batchIDs[a.RunID] = struct{}{}
	}

	// Second pass: insert all
	for _, a := range aggregates {
		s.data[a.RunID] = copyAggregate(a)
	}

	return nil
}

// GetByID retrieves an aggregate row by run_id. Returns ErrNotFound if not exists.
func (s *RunAggregateStore) GetByID(_ context.Context, runID string) (*domain.RunAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAggregate(a), nil
}

// GetByPolicyHash retrieves all rows for a policy, ordered by created_at ASC.
func (s *RunAggregateStore) GetByPolicyHash(_ context.Context, policyHash string) ([]*domain.RunAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunAggregate
	for _, a := range s.data {
		if a.PolicyHash == policyHash {
			result = append(result, copyAggregate(a))
		}
	}

	sortAggregates(result)
	return result, nil
}

// GetAll retrieves all rows, ordered by created_at ASC.
func (s *RunAggregateStore) GetAll(_ context.Context) ([]*domain.RunAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunAggregate, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, copyAggregate(a))
	}

	sortAggregates(result)
	return result, nil
}

// copyAggregate deep-copies a row so callers cannot mutate stored state
// through the optional regret pointer.
func copyAggregate(a *domain.RunAggregate) *domain.RunAggregate {
	aggCopy := *a
	if a.Regret != nil {
		regret := *a.Regret
		aggCopy.Regret = &regret
	}
	return &aggCopy
}

// sortAggregates orders by created_at, then run_id for a stable order.
func sortAggregates(aggs []*domain.RunAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].CreatedAt != aggs[j].CreatedAt {
			return aggs[i].CreatedAt < aggs[j].CreatedAt
		}
		return aggs[i].RunID < aggs[j].RunID
	})
}
