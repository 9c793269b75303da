package overtime

const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
)

const (
	KindStandard = "standard"
	KindNight    = "night"
	KindRestDay  = "rest_day"
)

const (
	HorizonDaily   = "daily"
	HorizonWeekly  = "weekly"
	HorizonMonthly = "monthly"
	HorizonAnnual  = "annual"
)

const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// SystemApprover is recorded on auto-approved requests.
const SystemApprover = "system"

const defaultDeadlineHours = 48
