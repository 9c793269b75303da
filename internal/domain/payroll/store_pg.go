package payroll

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

func (s *PGStore) InsertPeriod(ctx context.Context, tenantID string, period Period) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (tenant_id, year, sequence, frequency, start_date, end_date, pay_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, tenantID, period.Year, period.Sequence, period.Frequency,
		period.StartDate, period.EndDate, period.PayDate, period.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	var period Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, year, sequence, frequency, start_date, end_date, pay_date, status, created_at
    FROM payroll_periods
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, periodID).Scan(&period.ID, &period.Year, &period.Sequence, &period.Frequency,
		&period.StartDate, &period.EndDate, &period.PayDate, &period.Status, &period.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *PGStore) ListPeriods(ctx context.Context, tenantID string, year int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, year, sequence, frequency, start_date, end_date, pay_date, status, created_at
    FROM payroll_periods
    WHERE tenant_id = $1 AND ($2 = 0 OR year = $2)
    ORDER BY year DESC, sequence DESC
  `, tenantID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var period Period
		if err := rows.Scan(&period.ID, &period.Year, &period.Sequence, &period.Frequency,
			&period.StartDate, &period.EndDate, &period.PayDate, &period.Status, &period.CreatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func (s *PGStore) UpdatePeriodStatus(ctx context.Context, tenantID, periodID string, from []string, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_periods
    SET status = $3
    WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)
  `, tenantID, periodID, to, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) InsertBatch(ctx context.Context, tenantID string, batch Batch) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_batches (tenant_id, period_id, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, batch.PeriodID, batch.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error) {
	var batch Batch
	err := s.DB.QueryRow(ctx, `
    SELECT id, period_id, status, COALESCE(result, ''), employee_count, failed_count,
           total_perceptions, total_deductions, total_net, total_employer,
           COALESCE(approved_by::text, ''), created_at, updated_at
    FROM payroll_batches
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, batchID).Scan(&batch.ID, &batch.PeriodID, &batch.Status, &batch.Result,
		&batch.EmployeeCount, &batch.FailedCount,
		&batch.TotalPerceptions, &batch.TotalDeductions, &batch.TotalNet, &batch.TotalEmployer,
		&batch.ApprovedBy, &batch.CreatedAt, &batch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	if err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (s *PGStore) UpdateBatch(ctx context.Context, tenantID string, batch Batch) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_batches
    SET status = $3, result = $4, employee_count = $5, failed_count = $6,
        total_perceptions = $7, total_deductions = $8, total_net = $9, total_employer = $10,
        updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, batch.ID, batch.Status, batch.Result, batch.EmployeeCount, batch.FailedCount,
		batch.TotalPerceptions, batch.TotalDeductions, batch.TotalNet, batch.TotalEmployer)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (s *PGStore) UpdateBatchStatus(ctx context.Context, tenantID, batchID string, from []string, to, approver string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_batches
    SET status = $3,
        approved_by = CASE WHEN $3 = 'approved' THEN NULLIF($5,'')::uuid ELSE approved_by END,
        updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)
  `, tenantID, batchID, to, from, approver)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) ReplaceItems(ctx context.Context, tenantID, batchID string, items []BatchItem) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    DELETE FROM payroll_batch_items WHERE tenant_id = $1 AND batch_id = $2
  `, tenantID, batchID); err != nil {
		return err
	}
	for _, item := range items {
		var conceptsJSON []byte
		if item.Concepts != nil {
			conceptsJSON, err = json.Marshal(item.Concepts)
			if err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_batch_items (tenant_id, batch_id, employee_id, status, concepts_json, error_kind, error_message)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, tenantID, batchID, item.EmployeeID, item.Status, conceptsJSON, item.ErrorKind, item.ErrorMsg); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) ListItems(ctx context.Context, tenantID, batchID string) ([]BatchItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT batch_id, employee_id, status, concepts_json, COALESCE(error_kind, ''), COALESCE(error_message, '')
    FROM payroll_batch_items
    WHERE tenant_id = $1 AND batch_id = $2
    ORDER BY employee_id
  `, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BatchItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *PGStore) GetItem(ctx context.Context, tenantID, batchID, employeeID string) (BatchItem, error) {
	item, err := scanItem(s.DB.QueryRow(ctx, `
    SELECT batch_id, employee_id, status, concepts_json, COALESCE(error_kind, ''), COALESCE(error_message, '')
    FROM payroll_batch_items
    WHERE tenant_id = $1 AND batch_id = $2 AND employee_id = $3
  `, tenantID, batchID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return BatchItem{}, ErrItemNotFound
	}
	if err != nil {
		return BatchItem{}, err
	}
	return item, nil
}

func scanItem(row pgx.Row) (BatchItem, error) {
	var item BatchItem
	var conceptsJSON []byte
	if err := row.Scan(&item.BatchID, &item.EmployeeID, &item.Status, &conceptsJSON, &item.ErrorKind, &item.ErrorMsg); err != nil {
		return BatchItem{}, err
	}
	if len(conceptsJSON) > 0 {
		item.Concepts = &Concepts{}
		if err := json.Unmarshal(conceptsJSON, item.Concepts); err != nil {
			return BatchItem{}, err
		}
	}
	return item, nil
}

func (s *PGStore) Policy(ctx context.Context, tenantID string) (Policy, bool, error) {
	var policyJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT policy_json FROM payroll_policies WHERE tenant_id = $1
  `, tenantID).Scan(&policyJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, false, nil
	}
	if err != nil {
		return Policy{}, false, err
	}
	var policy Policy
	if err := json.Unmarshal(policyJSON, &policy); err != nil {
		return Policy{}, false, err
	}
	return policy, true, nil
}

func (s *PGStore) SetPolicy(ctx context.Context, tenantID string, policy Policy) error {
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_policies (tenant_id, policy_json)
    VALUES ($1,$2)
    ON CONFLICT (tenant_id) DO UPDATE SET policy_json = EXCLUDED.policy_json, updated_at = now()
  `, tenantID, policyJSON)
	return err
}
