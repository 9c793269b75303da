package employee

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemStore struct {
	mu         sync.RWMutex
	employees  map[string]Employee
	bank       map[string]string
	attendance map[string]AttendanceSummary
}

func NewMemStore() *MemStore {
	return &MemStore{
		employees:  make(map[string]Employee),
		bank:       make(map[string]string),
		attendance: make(map[string]AttendanceSummary),
	}
}

func attendanceKey(employeeID string, start, end time.Time) string {
	return employeeID + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}

func (s *MemStore) Get(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[employeeID]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (s *MemStore) List(ctx context.Context, tenantID string, status string, limit, offset int) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Employee
	for _, emp := range s.employees {
		if status == "" || emp.Status == status {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) ListIDs(ctx context.Context, tenantID string, status string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, emp := range s.employees {
		if status == "" || emp.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemStore) Insert(ctx context.Context, tenantID string, emp Employee) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.Status = StatusActive
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	s.bank[emp.ID] = emp.BankAccount
	emp.BankAccount = ""
	s.employees[emp.ID] = emp
	return emp.ID, nil
}

func (s *MemStore) Update(ctx context.Context, tenantID string, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.employees[emp.ID]
	if !ok {
		return ErrNotFound
	}
	if emp.BankAccount != "" {
		s.bank[emp.ID] = emp.BankAccount
	}
	emp.BankAccount = ""
	emp.Status = cur.Status
	emp.TerminationDate = cur.TerminationDate
	emp.CreatedAt = cur.CreatedAt
	emp.UpdatedAt = time.Now()
	s.employees[emp.ID] = emp
	return nil
}

func (s *MemStore) Terminate(ctx context.Context, tenantID, employeeID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[employeeID]
	if !ok || emp.Status != StatusActive {
		return ErrNotFound
	}
	emp.Status = StatusTerminated
	emp.TerminationDate = &date
	emp.UpdatedAt = time.Now()
	s.employees[employeeID] = emp
	return nil
}

func (s *MemStore) BankAccount(ctx context.Context, tenantID, employeeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.employees[employeeID]; !ok {
		return "", ErrNotFound
	}
	return s.bank[employeeID], nil
}

func (s *MemStore) Attendance(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (AttendanceSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.attendance[attendanceKey(employeeID, periodStart, periodEnd)]
	return sum, ok, nil
}

func (s *MemStore) UpsertAttendance(ctx context.Context, tenantID string, sum AttendanceSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[attendanceKey(sum.EmployeeID, sum.PeriodStart, sum.PeriodEnd)] = sum
	return nil
}
