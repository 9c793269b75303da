package employee

import "fmt"

var clabeWeights = [3]int{3, 7, 1}

// ValidateCLABE checks the 18-digit Mexican CLABE format and its weighted
// mod-10 control digit.
func ValidateCLABE(clabe string) error {
	if len(clabe) != 18 {
		return fmt.Errorf("clabe must be 18 digits, got %d", len(clabe))
	}
	sum := 0
	for i := 0; i < 17; i++ {
		c := clabe[i]
		if c < '0' || c > '9' {
			return fmt.Errorf("clabe must be numeric")
		}
		sum += (int(c-'0') * clabeWeights[i%3]) % 10
	}
	last := clabe[17]
	if last < '0' || last > '9' {
		return fmt.Errorf("clabe must be numeric")
	}
	control := (10 - sum%10) % 10
	if int(last-'0') != control {
		return fmt.Errorf("clabe control digit mismatch")
	}
	return nil
}

func validFrequency(f string) bool {
	switch f {
	case FrequencyMonthly, FrequencyBiweekly, FrequencyWeekly:
		return true
	}
	return false
}
