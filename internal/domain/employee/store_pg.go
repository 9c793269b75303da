package employee

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "nomina/internal/platform/crypto"
)

type PGStore struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewPGStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *PGStore {
	return &PGStore{DB: db, Crypto: crypto}
}

const employeeColumns = `
    id,
    COALESCE(user_id::text, ''),
    COALESCE(employee_number, ''),
    first_name, last_name, email,
    COALESCE(rfc, ''), COALESCE(curp, ''), COALESCE(nss, ''),
    monthly_salary, contribution_base, pay_frequency, country,
    COALESCE(department_id::text, ''), COALESCE(manager_id::text, ''),
    hire_date, termination_date, status, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber,
		&emp.FirstName, &emp.LastName, &emp.Email,
		&emp.RFC, &emp.CURP, &emp.NSS,
		&emp.MonthlySalary, &emp.ContributionBase, &emp.PayFrequency, &emp.Country,
		&emp.DepartmentID, &emp.ManagerID,
		&emp.HireDate, &emp.TerminationDate, &emp.Status,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (s *PGStore) Get(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *PGStore) List(ctx context.Context, tenantID string, status string, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
    ORDER BY last_name, first_name
    LIMIT $3 OFFSET $4
  `, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, nil
}

func (s *PGStore) ListIDs(ctx context.Context, tenantID string, status string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM employees
    WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
    ORDER BY id
  `, tenantID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *PGStore) Insert(ctx context.Context, tenantID string, emp Employee) (string, error) {
	bankEnc, err := s.Crypto.EncryptString(emp.BankAccount)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      tenant_id, user_id, employee_number, first_name, last_name, email,
      rfc, curp, nss, bank_account_enc,
      monthly_salary, contribution_base, pay_frequency, country,
      department_id, manager_id, hire_date, status
    ) VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6, $7, $8, $9, $10,
              $11, $12, $13, $14, NULLIF($15,'')::uuid, NULLIF($16,'')::uuid, $17, $18)
    RETURNING id
  `, tenantID, emp.UserID, emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email,
		emp.RFC, emp.CURP, emp.NSS, bankEnc,
		emp.MonthlySalary, emp.ContributionBase, emp.PayFrequency, emp.Country,
		emp.DepartmentID, emp.ManagerID, emp.HireDate, StatusActive).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) Update(ctx context.Context, tenantID string, emp Employee) error {
	bankEnc, err := s.Crypto.EncryptString(emp.BankAccount)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      employee_number = $3, first_name = $4, last_name = $5, email = $6,
      rfc = $7, curp = $8, nss = $9,
      bank_account_enc = CASE WHEN $10::bytea IS NULL THEN bank_account_enc ELSE $10 END,
      monthly_salary = $11, contribution_base = $12, pay_frequency = $13, country = $14,
      department_id = NULLIF($15,'')::uuid, manager_id = NULLIF($16,'')::uuid,
      updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, emp.ID, emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email,
		emp.RFC, emp.CURP, emp.NSS, bankEnc,
		emp.MonthlySalary, emp.ContributionBase, emp.PayFrequency, emp.Country,
		emp.DepartmentID, emp.ManagerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Terminate(ctx context.Context, tenantID, employeeID string, date time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET status = $3, termination_date = $4, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = $5
  `, tenantID, employeeID, StatusTerminated, date, StatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) BankAccount(ctx context.Context, tenantID, employeeID string) (string, error) {
	var enc []byte
	err := s.DB.QueryRow(ctx, `
    SELECT bank_account_enc
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&enc)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return s.Crypto.DecryptString(enc)
}

func (s *PGStore) Attendance(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (AttendanceSummary, bool, error) {
	var sum AttendanceSummary
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, period_start, period_end, worked_days, absent_days
    FROM attendance_summaries
    WHERE tenant_id = $1 AND employee_id = $2 AND period_start = $3 AND period_end = $4
  `, tenantID, employeeID, periodStart, periodEnd).Scan(
		&sum.EmployeeID, &sum.PeriodStart, &sum.PeriodEnd, &sum.WorkedDays, &sum.AbsentDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return AttendanceSummary{}, false, nil
	}
	if err != nil {
		return AttendanceSummary{}, false, err
	}
	return sum, true, nil
}

func (s *PGStore) UpsertAttendance(ctx context.Context, tenantID string, sum AttendanceSummary) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_summaries (tenant_id, employee_id, period_start, period_end, worked_days, absent_days)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (tenant_id, employee_id, period_start, period_end)
    DO UPDATE SET worked_days = EXCLUDED.worked_days, absent_days = EXCLUDED.absent_days
  `, tenantID, sum.EmployeeID, sum.PeriodStart, sum.PeriodEnd, sum.WorkedDays, sum.AbsentDays)
	return err
}
