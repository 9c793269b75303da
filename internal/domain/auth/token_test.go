package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{
		UserID:   "u1",
		TenantID: "t1",
		RoleID:   "r1",
		RoleName: RoleHR,
	}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "t1", claims.TenantID)
	require.Equal(t, RoleHR, claims.RoleName)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("other", token)
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.NoError(t, CheckPassword(hash, "s3cret!"))
	require.Error(t, CheckPassword(hash, "wrong"))
}

func TestRolePermissionsCoverKnownRoles(t *testing.T) {
	for _, role := range Roles {
		_, ok := RolePermissions[role]
		require.True(t, ok, "role %s has no permission set", role)
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			require.Contains(t, DefaultPermissions, perm, "role %s grants unknown permission %s", role, perm)
		}
	}
}
