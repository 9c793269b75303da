package notifications

import (
	"context"
	"time"
)

type Notification struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	ReadAt     *time.Time `json:"readAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type StoreAPI interface {
	Insert(ctx context.Context, tenantID, employeeID, ntype, title, body string) error
	EmployeeEmail(ctx context.Context, tenantID, employeeID string) (string, error)
	List(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, tenantID, employeeID string) (int, error)
	MarkRead(ctx context.Context, tenantID, employeeID, notificationID string) error
	EmailSettings(ctx context.Context, tenantID string) (bool, string, error)
	UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error
}
