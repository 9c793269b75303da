package payroll

const (
	StatusDraft      = "draft"
	StatusCalculated = "calculated"
	StatusApproved   = "approved"
	StatusPaid       = "paid"
	StatusRejected   = "rejected"
)

const (
	ResultCompleted = "completed"
	ResultPartial   = "partial"
	ResultFailed    = "failed"
)

const (
	ItemCalculated = "calculated"
	ItemFailed     = "failed"
)

const (
	FormatCSV  = "csv"
	FormatBank = "bank"
)
