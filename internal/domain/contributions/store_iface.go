package contributions

import "context"

type Store interface {
	RatesForYear(ctx context.Context, tenantID, country string, year int) (RateSet, error)
	InsertRateSet(ctx context.Context, tenantID string, set RateSet) (string, error)
	ListRateSets(ctx context.Context, tenantID string) ([]RateSet, error)
}
