package payroll

import (
	"context"
	"time"
)

type Store interface {
	InsertPeriod(ctx context.Context, tenantID string, period Period) (string, error)
	GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error)
	ListPeriods(ctx context.Context, tenantID string, year int) ([]Period, error)
	UpdatePeriodStatus(ctx context.Context, tenantID, periodID string, from []string, to string) (bool, error)

	InsertBatch(ctx context.Context, tenantID string, batch Batch) (string, error)
	GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error)
	UpdateBatch(ctx context.Context, tenantID string, batch Batch) error
	UpdateBatchStatus(ctx context.Context, tenantID, batchID string, from []string, to, approver string) (bool, error)

	ReplaceItems(ctx context.Context, tenantID, batchID string, items []BatchItem) error
	ListItems(ctx context.Context, tenantID, batchID string) ([]BatchItem, error)
	GetItem(ctx context.Context, tenantID, batchID, employeeID string) (BatchItem, error)

	Policy(ctx context.Context, tenantID string) (Policy, bool, error)
	SetPolicy(ctx context.Context, tenantID string, policy Policy) error
}

// OvertimeSource supplies completed overtime earnings for an employee inside
// a period window. The overtime workflow implements it; payroll only pulls,
// which keeps recalculation idempotent.
type OvertimeSource interface {
	CompletedEarnings(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) ([]OvertimeEarning, error)
}
