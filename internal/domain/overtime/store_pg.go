package overtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) RulesForYear(ctx context.Context, tenantID, country string, year int) (CountryRules, error) {
	var rulesJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT rules_json
    FROM overtime_rules
    WHERE tenant_id = $1 AND country = $2 AND effective_year = $3
    ORDER BY created_at DESC
    LIMIT 1
  `, tenantID, country, year).Scan(&rulesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return CountryRules{}, &MissingRulesError{Country: country, Year: year}
	}
	if err != nil {
		return CountryRules{}, err
	}
	var rules CountryRules
	if err := json.Unmarshal(rulesJSON, &rules); err != nil {
		return CountryRules{}, err
	}
	return rules, nil
}

func (s *PGStore) InsertRules(ctx context.Context, tenantID string, rules CountryRules) (string, error) {
	if rules.CreatedAt.IsZero() {
		rules.CreatedAt = time.Now()
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO overtime_rules (tenant_id, country, effective_year, rules_json)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, tenantID, rules.Country, rules.EffectiveYear, rulesJSON).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) ListRules(ctx context.Context, tenantID string) ([]CountryRules, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, rules_json
    FROM overtime_rules
    WHERE tenant_id = $1
    ORDER BY country, effective_year DESC, created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CountryRules
	for rows.Next() {
		var id string
		var rulesJSON []byte
		if err := rows.Scan(&id, &rulesJSON); err != nil {
			return nil, err
		}
		var rules CountryRules
		if err := json.Unmarshal(rulesJSON, &rules); err != nil {
			return nil, err
		}
		rules.ID = id
		out = append(out, rules)
	}
	return out, nil
}

const requestColumns = `
    id, employee_id, country, requested_start, requested_end, planned_hours,
    kind, status, hourly_rate, multiplier, amount, COALESCE(reason, ''),
    chain_json, levels_json, current_level, deadline,
    actual_start, actual_end, actual_hours, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var chainJSON, levelsJSON []byte
	err := row.Scan(&req.ID, &req.EmployeeID, &req.Country,
		&req.RequestedStart, &req.RequestedEnd, &req.PlannedHours,
		&req.Kind, &req.Status, &req.HourlyRate, &req.Multiplier, &req.Amount, &req.Reason,
		&chainJSON, &levelsJSON, &req.CurrentLevel, &req.Deadline,
		&req.ActualStart, &req.ActualEnd, &req.ActualHours, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return Request{}, err
	}
	if len(chainJSON) > 0 {
		if err := json.Unmarshal(chainJSON, &req.Chain); err != nil {
			return Request{}, err
		}
	}
	if len(levelsJSON) > 0 {
		if err := json.Unmarshal(levelsJSON, &req.RequiredLevels); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

func (s *PGStore) InsertRequest(ctx context.Context, tenantID string, req Request) (string, error) {
	chainJSON, err := json.Marshal(req.Chain)
	if err != nil {
		return "", err
	}
	levelsJSON, err := json.Marshal(req.RequiredLevels)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO overtime_requests (
      tenant_id, employee_id, country, requested_start, requested_end, planned_hours,
      kind, status, hourly_rate, multiplier, amount, reason,
      chain_json, levels_json, current_level, deadline, actual_hours
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    RETURNING id
  `, tenantID, req.EmployeeID, req.Country, req.RequestedStart, req.RequestedEnd, req.PlannedHours,
		req.Kind, req.Status, req.HourlyRate, req.Multiplier, req.Amount, req.Reason,
		chainJSON, levelsJSON, req.CurrentLevel, req.Deadline, req.ActualHours).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT`+requestColumns+`
    FROM overtime_requests
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// UpdateRequest is a compare-and-set on status: a concurrent writer that
// already moved the request out of from loses, and the caller sees moved=false
// instead of silently double-applying side effects.
func (s *PGStore) UpdateRequest(ctx context.Context, tenantID string, req Request, from ...string) (bool, error) {
	chainJSON, err := json.Marshal(req.Chain)
	if err != nil {
		return false, err
	}
	levelsJSON, err := json.Marshal(req.RequiredLevels)
	if err != nil {
		return false, err
	}
	query := `
    UPDATE overtime_requests SET
      status = $3, amount = $4, chain_json = $5, levels_json = $6,
      current_level = $7, deadline = $8,
      actual_start = $9, actual_end = $10, actual_hours = $11,
      updated_at = now()
    WHERE tenant_id = $1 AND id = $2`
	args := []any{tenantID, req.ID, req.Status, req.Amount, chainJSON, levelsJSON,
		req.CurrentLevel, req.Deadline, req.ActualStart, req.ActualEnd, req.ActualHours}
	if len(from) > 0 {
		query += ` AND status = ANY($12)`
		args = append(args, from)
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) ListRequests(ctx context.Context, tenantID, employeeID, status string, limit, offset int) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+requestColumns+`
    FROM overtime_requests
    WHERE tenant_id = $1
      AND ($2 = '' OR employee_id::text = $2)
      AND ($3 = '' OR status = $3)
    ORDER BY created_at DESC
    LIMIT $4 OFFSET $5
  `, tenantID, employeeID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PGStore) ListPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+requestColumns+`
    FROM overtime_requests
    WHERE tenant_id = $1 AND status = $2 AND deadline IS NOT NULL AND deadline < $3
    ORDER BY deadline
  `, tenantID, StatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PGStore) ListCompleted(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+requestColumns+`
    FROM overtime_requests
    WHERE tenant_id = $1 AND employee_id = $2 AND status = $3
      AND actual_end >= $4 AND actual_end < $5
    ORDER BY id
  `, tenantID, employeeID, StatusCompleted, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PGStore) loadTracking(ctx context.Context, tenantID, employeeID string, fromYear, toYear int) ([]Tracking, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, year, month, hours, amount, daily_json, weekly_json
    FROM overtime_tracking
    WHERE tenant_id = $1 AND employee_id = $2 AND year BETWEEN $3 AND $4
  `, tenantID, employeeID, fromYear, toYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tracking
	for rows.Next() {
		var row Tracking
		var dailyJSON, weeklyJSON []byte
		if err := rows.Scan(&row.EmployeeID, &row.Year, &row.Month, &row.Hours, &row.Amount, &dailyJSON, &weeklyJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(dailyJSON, &row.Daily); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(weeklyJSON, &row.Weekly); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PGStore) Totals(ctx context.Context, tenantID, employeeID string, date time.Time) (Totals, error) {
	// ISO weeks can straddle a year boundary, so pull the adjacent years too.
	trackings, err := s.loadTracking(ctx, tenantID, employeeID, date.Year()-1, date.Year()+1)
	if err != nil {
		return Totals{}, err
	}
	totals := Totals{Daily: decimal.Zero, Weekly: decimal.Zero, Monthly: decimal.Zero, Annual: decimal.Zero}
	day := dayKey(date)
	week := weekKey(date)
	for _, row := range trackings {
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

func (s *PGStore) ApplyDelta(ctx context.Context, tenantID, employeeID string, date time.Time, hours, amount decimal.Decimal) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	year, month := date.Year(), int(date.Month())
	var trackingID string
	var curHours, curAmount decimal.Decimal
	var dailyJSON, weeklyJSON []byte
	err = tx.QueryRow(ctx, `
    SELECT id, hours, amount, daily_json, weekly_json
    FROM overtime_tracking
    WHERE tenant_id = $1 AND employee_id = $2 AND year = $3 AND month = $4
    FOR UPDATE
  `, tenantID, employeeID, year, month).Scan(&trackingID, &curHours, &curAmount, &dailyJSON, &weeklyJSON)

	daily := map[string]decimal.Decimal{}
	weekly := map[string]decimal.Decimal{}
	if errors.Is(err, pgx.ErrNoRows) {
		trackingID = ""
	} else if err != nil {
		return err
	} else {
		if err := json.Unmarshal(dailyJSON, &daily); err != nil {
			return err
		}
		if err := json.Unmarshal(weeklyJSON, &weekly); err != nil {
			return err
		}
	}

	daily[dayKey(date)] = daily[dayKey(date)].Add(hours)
	weekly[weekKey(date)] = weekly[weekKey(date)].Add(hours)
	newDaily, err := json.Marshal(daily)
	if err != nil {
		return err
	}
	newWeekly, err := json.Marshal(weekly)
	if err != nil {
		return err
	}

	if trackingID == "" {
		_, err = tx.Exec(ctx, `
      INSERT INTO overtime_tracking (tenant_id, employee_id, year, month, hours, amount, daily_json, weekly_json)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, tenantID, employeeID, year, month, hours, amount, newDaily, newWeekly)
	} else {
		_, err = tx.Exec(ctx, `
      UPDATE overtime_tracking
      SET hours = $2, amount = $3, daily_json = $4, weekly_json = $5, updated_at = now()
      WHERE id = $1
    `, trackingID, curHours.Add(hours), curAmount.Add(amount), newDaily, newWeekly)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Tracking(ctx context.Context, tenantID, employeeID string, year, month int) (Tracking, error) {
	var row Tracking
	var dailyJSON, weeklyJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, year, month, hours, amount, daily_json, weekly_json
    FROM overtime_tracking
    WHERE tenant_id = $1 AND employee_id = $2 AND year = $3 AND month = $4
  `, tenantID, employeeID, year, month).Scan(&row.EmployeeID, &row.Year, &row.Month, &row.Hours, &row.Amount, &dailyJSON, &weeklyJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tracking{EmployeeID: employeeID, Year: year, Month: month}, nil
	}
	if err != nil {
		return Tracking{}, err
	}
	if err := json.Unmarshal(dailyJSON, &row.Daily); err != nil {
		return Tracking{}, err
	}
	if err := json.Unmarshal(weeklyJSON, &row.Weekly); err != nil {
		return Tracking{}, err
	}
	return row, nil
}

func (s *PGStore) AnnualHours(ctx context.Context, tenantID, employeeID string, year int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(hours), 0)
    FROM overtime_tracking
    WHERE tenant_id = $1 AND employee_id = $2 AND year = $3
  `, tenantID, employeeID, year).Scan(&total)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return total, nil
}
