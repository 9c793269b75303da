package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, tenantID, employeeID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (tenant_id, employee_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, employeeID, ntype, title, body)
	return err
}

func (s *Store) EmployeeEmail(ctx context.Context, tenantID, employeeID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(email, '') FROM users
    WHERE tenant_id = $1 AND employee_id = $2
  `, tenantID, employeeID).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) List(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, type, title, body, read_at, created_at
    FROM notifications
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, tenantID, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, tenantID, employeeID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications WHERE tenant_id = $1 AND employee_id = $2
  `, tenantID, employeeID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, tenantID, employeeID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE tenant_id = $1 AND employee_id = $2 AND id = $3
  `, tenantID, employeeID, notificationID)
	return err
}

func (s *Store) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	var enabled bool
	var from string
	err := s.DB.QueryRow(ctx, `
    SELECT email_notifications_enabled, COALESCE(email_from, '')
    FROM tenant_settings
    WHERE tenant_id = $1
  `, tenantID).Scan(&enabled, &from)
	if err != nil {
		return false, "", err
	}
	return enabled, from, nil
}

func (s *Store) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, email_notifications_enabled, email_from)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id) DO UPDATE
      SET email_notifications_enabled = EXCLUDED.email_notifications_enabled,
          email_from = EXCLUDED.email_from,
          updated_at = now()
  `, tenantID, enabled, nullIfEmpty(from))
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
