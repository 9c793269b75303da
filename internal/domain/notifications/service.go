package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

// Notify stores the notification and, when the tenant has email enabled,
// forwards it to the employee's address. Satisfies the overtime and payroll
// dispatch edges.
func (s *Service) Notify(ctx context.Context, tenantID, employeeID, kind, message string) error {
	title := titleFor(kind)
	if err := s.store.Insert(ctx, tenantID, employeeID, kind, title, message); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}

	enabled, from := s.emailSettings(ctx, tenantID)
	if !enabled {
		return nil
	}
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.EmployeeEmail(ctx, tenantID, employeeID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, from, email, title, message); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, tenantID, employeeID, limit, offset)
}

func (s *Service) Count(ctx context.Context, tenantID, employeeID string) (int, error) {
	return s.store.Count(ctx, tenantID, employeeID)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, employeeID, notificationID)
}

func (s *Service) emailSettings(ctx context.Context, tenantID string) (bool, string) {
	enabled, from, err := s.store.EmailSettings(ctx, tenantID)
	if err != nil {
		return false, ""
	}
	return enabled, from
}

func (s *Service) GetSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return s.store.EmailSettings(ctx, tenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	return s.store.UpdateSettings(ctx, tenantID, enabled, from)
}
