package contributions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemStore struct {
	mu   sync.RWMutex
	sets []RateSet
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) RatesForYear(ctx context.Context, tenantID, country string, year int) (RateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *RateSet
	for i := range s.sets {
		set := &s.sets[i]
		if set.Country == country && set.Year == year {
			if found == nil || set.CreatedAt.After(found.CreatedAt) {
				found = set
			}
		}
	}
	if found == nil {
		return RateSet{}, &MissingRatesError{Country: country, Year: year}
	}
	return *found, nil
}

func (s *MemStore) InsertRateSet(ctx context.Context, tenantID string, set RateSet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set.ID = uuid.NewString()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}
	s.sets = append(s.sets, set)
	return set.ID, nil
}

func (s *MemStore) ListRateSets(ctx context.Context, tenantID string) ([]RateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RateSet, len(s.sets))
	copy(out, s.sets)
	return out, nil
}
