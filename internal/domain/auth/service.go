package auth

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store  Store
	secret string
	ttl    time.Duration
}

func NewService(store Store, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

// Login verifies the password and issues a signed token carrying the tenant
// and role claims.
func (s *Service) Login(ctx context.Context, email, password string) (string, AuthUser, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return "", AuthUser{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", AuthUser{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, Claims{
		UserID:     user.ID,
		TenantID:   user.TenantID,
		EmployeeID: user.EmployeeID,
		RoleID:     user.RoleID,
		RoleName:   user.RoleName,
	}, s.ttl)
	if err != nil {
		return "", AuthUser{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		return "", AuthUser{}, err
	}
	return token, user, nil
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}
