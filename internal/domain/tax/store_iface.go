package tax

import "context"

type Store interface {
	TableForYear(ctx context.Context, tenantID, country string, year int) (Table, error)
	InsertTable(ctx context.Context, tenantID string, table Table) (string, error)
	ListTables(ctx context.Context, tenantID string) ([]Table, error)
}
