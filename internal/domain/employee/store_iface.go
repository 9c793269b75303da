package employee

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, tenantID, employeeID string) (Employee, error)
	List(ctx context.Context, tenantID string, status string, limit, offset int) ([]Employee, error)
	ListIDs(ctx context.Context, tenantID string, status string) ([]string, error)
	Insert(ctx context.Context, tenantID string, emp Employee) (string, error)
	Update(ctx context.Context, tenantID string, emp Employee) error
	Terminate(ctx context.Context, tenantID, employeeID string, date time.Time) error
	BankAccount(ctx context.Context, tenantID, employeeID string) (string, error)
	Attendance(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (AttendanceSummary, bool, error)
	UpsertAttendance(ctx context.Context, tenantID string, sum AttendanceSummary) error
}
