package auth

import "context"

type AuthUser struct {
	ID           string
	TenantID     string
	EmployeeID   string
	RoleID       string
	RoleName     string
	PasswordHash string
}

type Store interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}
