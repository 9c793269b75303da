package tax

import "fmt"

// MissingTableError is returned when no tax table exists for the requested
// jurisdiction and fiscal year. Payroll aborts the affected employees and
// leaves the rest of the batch running.
type MissingTableError struct {
	Country string
	Year    int
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("no tax table for %s/%d", e.Country, e.Year)
}
