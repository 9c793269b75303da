package notifications

const (
	TypeOvertimeSubmitted = "overtime_submitted"
	TypeOvertimeApproved  = "overtime_approved"
	TypeOvertimeRejected  = "overtime_rejected"
	TypeOvertimeEscalated = "overtime_escalated"
	TypeBatchCalculated   = "payroll_batch_calculated"
	TypeBatchApproved     = "payroll_batch_approved"
	TypeBatchPaid         = "payroll_batch_paid"
	TypePayslipPublished  = "payslip_published"
)

var titles = map[string]string{
	TypeOvertimeSubmitted: "Overtime request submitted",
	TypeOvertimeApproved:  "Overtime request approved",
	TypeOvertimeRejected:  "Overtime request rejected",
	TypeOvertimeEscalated: "Overtime approval pending",
	TypeBatchCalculated:   "Payroll batch calculated",
	TypeBatchApproved:     "Payroll batch approved",
	TypeBatchPaid:         "Payroll batch paid",
	TypePayslipPublished:  "Payslip available",
}

func titleFor(kind string) string {
	if title, ok := titles[kind]; ok {
		return title
	}
	return "Notification"
}
