package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPeriodNotFound = errors.New("payroll period not found")
	ErrBatchNotFound  = errors.New("payroll batch not found")
	ErrItemNotFound   = errors.New("payroll batch item not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a batch or period action attempted from a
// state that does not permit it. Nothing is mutated when it is returned.
type InvalidTransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Entity, e.From)
}

// PaymentDestinationError marks an employee excluded from a payment file.
// The export still succeeds for everyone else.
type PaymentDestinationError struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

func (e *PaymentDestinationError) Error() string {
	return fmt.Sprintf("employee %s has no valid payment destination: %s", e.EmployeeID, e.Reason)
}
