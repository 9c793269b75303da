package overtime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Store interface {
	RulesForYear(ctx context.Context, tenantID, country string, year int) (CountryRules, error)
	InsertRules(ctx context.Context, tenantID string, rules CountryRules) (string, error)
	ListRules(ctx context.Context, tenantID string) ([]CountryRules, error)

	InsertRequest(ctx context.Context, tenantID string, req Request) (string, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	// UpdateRequest persists req only while the stored status is still one of
	// from; reports whether the write happened. An empty from writes
	// unconditionally.
	UpdateRequest(ctx context.Context, tenantID string, req Request, from ...string) (bool, error)
	ListRequests(ctx context.Context, tenantID, employeeID, status string, limit, offset int) ([]Request, error)
	ListPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]Request, error)
	ListCompleted(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Request, error)

	Totals(ctx context.Context, tenantID, employeeID string, date time.Time) (Totals, error)
	ApplyDelta(ctx context.Context, tenantID, employeeID string, date time.Time, hours, amount decimal.Decimal) error
	Tracking(ctx context.Context, tenantID, employeeID string, year, month int) (Tracking, error)
	AnnualHours(ctx context.Context, tenantID, employeeID string, year int) (decimal.Decimal, error)
}
