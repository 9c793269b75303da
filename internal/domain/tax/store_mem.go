package tax

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps tables in memory. It backs the engine tests and any
// deployment that loads reference data at boot instead of from Postgres.
type MemStore struct {
	mu     sync.RWMutex
	tables []Table
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) TableForYear(ctx context.Context, tenantID, country string, year int) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *Table
	for i := range s.tables {
		t := &s.tables[i]
		if t.Country == country && t.Year == year {
			if found == nil || t.CreatedAt.After(found.CreatedAt) {
				found = t
			}
		}
	}
	if found == nil {
		return Table{}, &MissingTableError{Country: country, Year: year}
	}
	return *found, nil
}

func (s *MemStore) InsertTable(ctx context.Context, tenantID string, table Table) (string, error) {
	if err := table.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table.ID = uuid.NewString()
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now()
	}
	s.tables = append(s.tables, table)
	return table.ID, nil
}

func (s *MemStore) ListTables(ctx context.Context, tenantID string) ([]Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Table, len(s.tables))
	copy(out, s.tables)
	return out, nil
}
