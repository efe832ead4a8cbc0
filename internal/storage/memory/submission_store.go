package memory

import (
	"context"
	"sort"
	"sync"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/storage"
)

// SubmissionStore is an in-memory implementation of storage.SubmissionStore.
type SubmissionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Submission // keyed by submission_id
}

// NewSubmissionStore creates a new in-memory submission store.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		data: make(map[string]*domain.Submission),
	}
}

var _ storage.SubmissionStore = (*SubmissionStore)(nil)

// Insert adds a new submission. Returns ErrDuplicateKey if submission_id exists.
func (s *SubmissionStore) Insert(_ context.Context, sub *domain.Submission) error {
	if sub == nil || sub.SubmissionID == "" || sub.StudentEmail == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sub.SubmissionID]; exists {
		return storage.ErrDuplicateKey
	}

	subCopy := *sub
	s.data[sub.SubmissionID] = &subCopy
	return nil
}

// GetByID retrieves a submission by its ID. Returns ErrNotFound if not exists.
func (s *SubmissionStore) GetByID(_ context.Context, submissionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.data[submissionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	subCopy := *sub
	return &subCopy, nil
}

// GetByStudent retrieves all submissions for a student email, ordered by created_at ASC.
func (s *SubmissionStore) GetByStudent(_ context.Context, studentEmail string) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Submission
	for _, sub := range s.data {
		if sub.StudentEmail == studentEmail {
			subCopy := *sub
			result = append(result, &subCopy)
		}
	}

	sortSubmissions(result)
	return result, nil
}

// GetAll retrieves all submissions, ordered by created_at ASC.
func (s *SubmissionStore) GetAll(_ context.Context) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Submission, 0, len(s.data))
	for _, sub := range s.data {
		subCopy := *sub
		result = append(result, &subCopy)
	}

	sortSubmissions(result)
	return result, nil
}

// CountByStudent returns the number of submissions for a student email.
func (s *SubmissionStore) CountByStudent(_ context.Context, studentEmail string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.data {
		if sub.StudentEmail == studentEmail {
			count++
		}
	}
	return count, nil
}

// sortSubmissions orders by created_at, then submission_id for a stable order.
func sortSubmissions(subs []*domain.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CreatedAt != subs[j].CreatedAt {
			return subs[i].CreatedAt < subs[j].CreatedAt
		}
		return subs[i].SubmissionID < subs[j].SubmissionID
	})
}
