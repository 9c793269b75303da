package auth

import (
	"context"
	"sync"
)

type MemStore struct {
	mu    sync.RWMutex
	users map[string]AuthUser // by email
	roles map[string]string   // roleID -> role name
}

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]AuthUser),
		roles: make(map[string]string),
	}
}

func (s *MemStore) AddUser(email string, user AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user
	s.roles[user.RoleID] = user.RoleName
}

func (s *MemStore) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return AuthUser{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *MemStore) UpdateLastLogin(ctx context.Context, userID string) error {
	return nil
}

func (s *MemStore) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	s.mu.RLock()
	roleName := s.roles[roleID]
	s.mu.RUnlock()
	for _, p := range RolePermissions[roleName] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}
