package auth

const (
	RoleEmployee    = "employee"
	RoleSupervisor  = "supervisor"
	RoleManager     = "manager"
	RoleHR          = "hr"
	RoleSystemAdmin = "system_admin"
)

var Roles = []string{RoleEmployee, RoleSupervisor, RoleManager, RoleHR, RoleSystemAdmin}

// UserContext is what the auth middleware puts on the request context.
type UserContext struct {
	UserID     string
	TenantID   string
	EmployeeID string
	RoleID     string
	RoleName   string
}
