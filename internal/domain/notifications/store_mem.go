package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type MemStore struct {
	mu      sync.RWMutex
	seq     int
	rows    map[string][]Notification // tenantID|employeeID
	emails  map[string]string         // tenantID|employeeID
	enabled map[string]bool
	from    map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		rows:    make(map[string][]Notification),
		emails:  make(map[string]string),
		enabled: make(map[string]bool),
		from:    make(map[string]string),
	}
}

func (s *MemStore) SetEmail(tenantID, employeeID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[tenantID+"|"+employeeID] = email
}

func (s *MemStore) Insert(ctx context.Context, tenantID, employeeID, ntype, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := tenantID + "|" + employeeID
	s.rows[key] = append(s.rows[key], Notification{
		ID:         fmt.Sprintf("n-%d", s.seq),
		EmployeeID: employeeID,
		Type:       ntype,
		Title:      title,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *MemStore) EmployeeEmail(ctx context.Context, tenantID, employeeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emails[tenantID+"|"+employeeID], nil
}

func (s *MemStore) List(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[tenantID+"|"+employeeID]
	out := make([]Notification, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Count(ctx context.Context, tenantID, employeeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[tenantID+"|"+employeeID]), nil
}

func (s *MemStore) MarkRead(ctx context.Context, tenantID, employeeID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID + "|" + employeeID
	now := time.Now().UTC()
	for i := range s.rows[key] {
		if s.rows[key][i].ID == notificationID {
			s.rows[key][i].ReadAt = &now
		}
	}
	return nil
}

func (s *MemStore) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[tenantID], s.from[tenantID], nil
}

func (s *MemStore) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[tenantID] = enabled
	s.from[tenantID] = from
	return nil
}
