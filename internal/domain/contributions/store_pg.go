package contributions

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) RatesForYear(ctx context.Context, tenantID, country string, year int) (RateSet, error) {
	var set RateSet
	var employeeJSON, employerJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, country, year, cap_uma_multiple, employee_rates_json, employer_rates_json, created_at
    FROM contribution_rate_sets
    WHERE tenant_id = $1 AND country = $2 AND year = $3
    ORDER BY created_at DESC
    LIMIT 1
  `, tenantID, country, year).Scan(&set.ID, &set.Country, &set.Year, &set.CapUMAMultiple, &employeeJSON, &employerJSON, &set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RateSet{}, &MissingRatesError{Country: country, Year: year}
	}
	if err != nil {
		return RateSet{}, err
	}
	if err := json.Unmarshal(employeeJSON, &set.Employee); err != nil {
		return RateSet{}, err
	}
	if err := json.Unmarshal(employerJSON, &set.Employer); err != nil {
		return RateSet{}, err
	}
	return set, nil
}

func (s *PGStore) InsertRateSet(ctx context.Context, tenantID string, set RateSet) (string, error) {
	employeeJSON, err := json.Marshal(set.Employee)
	if err != nil {
		return "", err
	}
	employerJSON, err := json.Marshal(set.Employer)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO contribution_rate_sets (tenant_id, country, year, cap_uma_multiple, employee_rates_json, employer_rates_json)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, set.Country, set.Year, set.CapUMAMultiple, employeeJSON, employerJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) ListRateSets(ctx context.Context, tenantID string) ([]RateSet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, country, year, cap_uma_multiple, employee_rates_json, employer_rates_json, created_at
    FROM contribution_rate_sets
    WHERE tenant_id = $1
    ORDER BY country, year DESC, created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []RateSet
	for rows.Next() {
		var set RateSet
		var employeeJSON, employerJSON []byte
		if err := rows.Scan(&set.ID, &set.Country, &set.Year, &set.CapUMAMultiple, &employeeJSON, &employerJSON, &set.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(employeeJSON, &set.Employee); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(employerJSON, &set.Employer); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}
