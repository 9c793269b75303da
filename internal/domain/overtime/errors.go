package overtime

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("overtime request not found")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LimitExceededError names the breached horizon with the current and
// requested values so the caller can show exactly what was violated.
type LimitExceededError struct {
	Horizon   string
	Current   decimal.Decimal
	Requested decimal.Decimal
	Limit     decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s overtime limit exceeded: current %s + requested %s > limit %s",
		e.Horizon, e.Current, e.Requested, e.Limit)
}

// InvalidTransitionError reports a workflow action from a state that does
// not permit it. The request is never mutated when it is returned.
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s overtime request in status %q", e.Action, e.From)
}

type MissingRulesError struct {
	Country string
	Year    int
}

func (e *MissingRulesError) Error() string {
	return fmt.Sprintf("no overtime rules for %s/%d", e.Country, e.Year)
}
