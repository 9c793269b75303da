package tax

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

func (s *PGStore) TableForYear(ctx context.Context, tenantID, country string, year int) (Table, error) {
	var t Table
	var bracketsJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, country, year, frequency, uma, minimum_wage, brackets_json, created_at
    FROM tax_tables
    WHERE tenant_id = $1 AND country = $2 AND year = $3
    ORDER BY created_at DESC
    LIMIT 1
  `, tenantID, country, year).Scan(&t.ID, &t.Country, &t.Year, &t.Frequency, &t.UMA, &t.MinimumWage, &bracketsJSON, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Table{}, &MissingTableError{Country: country, Year: year}
	}
	if err != nil {
		return Table{}, err
	}
	if err := json.Unmarshal(bracketsJSON, &t.Brackets); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (s *PGStore) InsertTable(ctx context.Context, tenantID string, table Table) (string, error) {
	if err := table.Validate(); err != nil {
		return "", err
	}
	bracketsJSON, err := json.Marshal(table.Brackets)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO tax_tables (tenant_id, country, year, frequency, uma, minimum_wage, brackets_json)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, table.Country, table.Year, table.Frequency, table.UMA, table.MinimumWage, bracketsJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) ListTables(ctx context.Context, tenantID string) ([]Table, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, country, year, frequency, uma, minimum_wage, brackets_json, created_at
    FROM tax_tables
    WHERE tenant_id = $1
    ORDER BY country, year DESC, created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		var bracketsJSON []byte
		if err := rows.Scan(&t.ID, &t.Country, &t.Year, &t.Frequency, &t.UMA, &t.MinimumWage, &bracketsJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bracketsJSON, &t.Brackets); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
