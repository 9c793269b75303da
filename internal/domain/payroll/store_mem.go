package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemStore struct {
	mu       sync.RWMutex
	periods  map[string]Period
	batches  map[string]Batch
	items    map[string][]BatchItem
	policies map[string]Policy
}

func NewMemStore() *MemStore {
	return &MemStore{
		periods:  make(map[string]Period),
		batches:  make(map[string]Batch),
		items:    make(map[string][]BatchItem),
		policies: make(map[string]Policy),
	}
}

func (s *MemStore) InsertPeriod(ctx context.Context, tenantID string, period Period) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	period.ID = uuid.NewString()
	period.CreatedAt = time.Now()
	s.periods[period.ID] = period
	return period.ID, nil
}

func (s *MemStore) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[periodID]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return period, nil
}

func (s *MemStore) ListPeriods(ctx context.Context, tenantID string, year int) ([]Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var periods []Period
	for _, period := range s.periods {
		if year == 0 || period.Year == year {
			periods = append(periods, period)
		}
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year > periods[j].Year
		}
		return periods[i].Sequence > periods[j].Sequence
	})
	return periods, nil
}

func (s *MemStore) UpdatePeriodStatus(ctx context.Context, tenantID, periodID string, from []string, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	period, ok := s.periods[periodID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if period.Status == f {
			period.Status = to
			s.periods[periodID] = period
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) InsertBatch(ctx context.Context, tenantID string, batch Batch) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch.ID = uuid.NewString()
	now := time.Now()
	batch.CreatedAt = now
	batch.UpdatedAt = now
	s.batches[batch.ID] = batch
	return batch.ID, nil
}

func (s *MemStore) GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return batch, nil
}

func (s *MemStore) UpdateBatch(ctx context.Context, tenantID string, batch Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.batches[batch.ID]
	if !ok {
		return ErrBatchNotFound
	}
	batch.CreatedAt = cur.CreatedAt
	batch.UpdatedAt = time.Now()
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemStore) UpdateBatchStatus(ctx context.Context, tenantID, batchID string, from []string, to, approver string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if batch.Status == f {
			batch.Status = to
			if to == StatusApproved {
				batch.ApprovedBy = approver
			}
			batch.UpdatedAt = time.Now()
			s.batches[batchID] = batch
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) ReplaceItems(ctx context.Context, tenantID, batchID string, items []BatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]BatchItem, len(items))
	copy(copied, items)
	s.items[batchID] = copied
	return nil
}

func (s *MemStore) ListItems(ctx context.Context, tenantID, batchID string) ([]BatchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.items[batchID]
	out := make([]BatchItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemStore) GetItem(ctx context.Context, tenantID, batchID, employeeID string) (BatchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items[batchID] {
		if item.EmployeeID == employeeID {
			return item, nil
		}
	}
	return BatchItem{}, ErrItemNotFound
}

func (s *MemStore) Policy(ctx context.Context, tenantID string) (Policy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[tenantID]
	return policy, ok, nil
}

func (s *MemStore) SetPolicy(ctx context.Context, tenantID string, policy Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[tenantID] = policy
	return nil
}
