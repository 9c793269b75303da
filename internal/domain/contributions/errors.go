package contributions

import "fmt"

type MissingRatesError struct {
	Country string
	Year    int
}

func (e *MissingRatesError) Error() string {
	return fmt.Sprintf("no contribution rates for %s/%d", e.Country, e.Year)
}
