package overtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu       sync.RWMutex
	rules    []CountryRules
	requests map[string]Request
	tracking map[string]Tracking
}

func NewMemStore() *MemStore {
	return &MemStore{
		requests: make(map[string]Request),
		tracking: make(map[string]Tracking),
	}
}

func trackingKey(employeeID string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", employeeID, year, month)
}

func (s *MemStore) RulesForYear(ctx context.Context, tenantID, country string, year int) (CountryRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *CountryRules
	for i := range s.rules {
		r := &s.rules[i]
		if r.Country == country && r.EffectiveYear == year {
			if found == nil || r.CreatedAt.After(found.CreatedAt) {
				found = r
			}
		}
	}
	if found == nil {
		return CountryRules{}, &MissingRulesError{Country: country, Year: year}
	}
	return *found, nil
}

func (s *MemStore) InsertRules(ctx context.Context, tenantID string, rules CountryRules) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules.ID = uuid.NewString()
	if rules.CreatedAt.IsZero() {
		rules.CreatedAt = time.Now()
	}
	s.rules = append(s.rules, rules)
	return rules.ID, nil
}

func (s *MemStore) ListRules(ctx context.Context, tenantID string) ([]CountryRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CountryRules, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *MemStore) InsertRequest(ctx context.Context, tenantID string, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = uuid.NewString()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requests[req.ID] = req
	return req.ID, nil
}

func (s *MemStore) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (s *MemStore) UpdateRequest(ctx context.Context, tenantID string, req Request, from ...string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.requests[req.ID]
	if !ok {
		return false, ErrNotFound
	}
	if len(from) > 0 {
		matched := false
		for _, status := range from {
			if cur.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	req.CreatedAt = cur.CreatedAt
	req.UpdatedAt = time.Now()
	s.requests[req.ID] = req
	return true, nil
}

func (s *MemStore) ListRequests(ctx context.Context, tenantID, employeeID, status string, limit, offset int) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, req := range s.requests {
		if employeeID != "" && req.EmployeeID != employeeID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) ListPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, req := range s.requests {
		if req.Status == StatusPending && req.Deadline != nil && req.Deadline.Before(now) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out, nil
}

func (s *MemStore) ListCompleted(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, req := range s.requests {
		if req.EmployeeID != employeeID || req.Status != StatusCompleted || req.ActualEnd == nil {
			continue
		}
		if req.ActualEnd.Before(from) || req.ActualEnd.After(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Totals(ctx context.Context, tenantID, employeeID string, date time.Time) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := Totals{
		Daily:   decimal.Zero,
		Weekly:  decimal.Zero,
		Monthly: decimal.Zero,
		Annual:  decimal.Zero,
	}
	day := dayKey(date)
	week := weekKey(date)
	for _, row := range s.tracking {
		if row.EmployeeID != employeeID {
			continue
		}
		if row.Year == date.Year() {
			totals.Annual = totals.Annual.Add(row.Hours)
			if row.Month == int(date.Month()) {
				totals.Monthly = totals.Monthly.Add(row.Hours)
			}
		}
		if v, ok := row.Daily[day]; ok {
			totals.Daily = totals.Daily.Add(v)
		}
		if v, ok := row.Weekly[week]; ok {
			totals.Weekly = totals.Weekly.Add(v)
		}
	}
	return totals, nil
}

func (s *MemStore) ApplyDelta(ctx context.Context, tenantID, employeeID string, date time.Time, hours, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := trackingKey(employeeID, date.Year(), int(date.Month()))
	row, ok := s.tracking[key]
	if !ok {
		row = Tracking{
			EmployeeID: employeeID,
			Year:       date.Year(),
			Month:      int(date.Month()),
			Daily:      make(map[string]decimal.Decimal),
			Weekly:     make(map[string]decimal.Decimal),
		}
	}
	row.Hours = row.Hours.Add(hours)
	row.Amount = row.Amount.Add(amount)
	row.Daily[dayKey(date)] = row.Daily[dayKey(date)].Add(hours)
	row.Weekly[weekKey(date)] = row.Weekly[weekKey(date)].Add(hours)
	s.tracking[key] = row
	return nil
}

func (s *MemStore) Tracking(ctx context.Context, tenantID, employeeID string, year, month int) (Tracking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tracking[trackingKey(employeeID, year, month)]
	if !ok {
		return Tracking{EmployeeID: employeeID, Year: year, Month: month}, nil
	}
	return row, nil
}

func (s *MemStore) AnnualHours(ctx context.Context, tenantID, employeeID string, year int) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, row := range s.tracking {
		if row.EmployeeID == employeeID && row.Year == year {
			total = total.Add(row.Hours)
		}
	}
	return total, nil
}
