package auth

const (
	PermEmployeesRead  = "employees.read"
	PermEmployeesWrite = "employees.write"

	PermPayrollRead    = "payroll.read"
	PermPayrollRun     = "payroll.run"
	PermPayrollApprove = "payroll.approve"
	PermPayrollPay     = "payroll.pay"
	PermPayrollExport  = "payroll.export"

	PermOvertimeRead    = "overtime.read"
	PermOvertimeRequest = "overtime.request"
	PermOvertimeApprove = "overtime.approve"

	PermReferenceRead  = "reference.read"
	PermReferenceWrite = "reference.write"

	PermReportsRead = "reports.read"
	PermAuditRead   = "audit.read"
	PermSystemAdmin = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermPayrollRead,
	PermPayrollRun,
	PermPayrollApprove,
	PermPayrollPay,
	PermPayrollExport,
	PermOvertimeRead,
	PermOvertimeRequest,
	PermOvertimeApprove,
	PermReferenceRead,
	PermReferenceWrite,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermPayrollRead,
		PermOvertimeRead,
		PermOvertimeRequest,
	},
	RoleSupervisor: {
		PermEmployeesRead,
		PermPayrollRead,
		PermOvertimeRead,
		PermOvertimeRequest,
		PermOvertimeApprove,
		PermReportsRead,
	},
	RoleManager: {
		PermEmployeesRead,
		PermPayrollRead,
		PermOvertimeRead,
		PermOvertimeRequest,
		PermOvertimeApprove,
		PermReportsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermPayrollRead,
		PermPayrollRun,
		PermPayrollApprove,
		PermPayrollPay,
		PermPayrollExport,
		PermOvertimeRead,
		PermOvertimeRequest,
		PermOvertimeApprove,
		PermReferenceRead,
		PermReferenceWrite,
		PermReportsRead,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
	},
}
