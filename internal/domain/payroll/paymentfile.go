package payroll

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

func renderPaymentFile(format string, lines []PaymentLine) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(lines)
	case FormatBank:
		return renderBank(lines), nil
	default:
		return nil, &ValidationError{Field: "format", Reason: "must be csv or bank"}
	}
}

func renderCSV(lines []PaymentLine) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"employee_id", "employee_name", "clabe", "amount"}); err != nil {
		return nil, err
	}
	for _, line := range lines {
		record := []string{
			line.EmployeeID,
			line.EmployeeName,
			line.BankAccount,
			line.Amount.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderBank produces the fixed-width layout banks ingest: 18-digit CLABE,
// 15-digit zero-padded amount in cents, 40-char name.
func renderBank(lines []PaymentLine) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		cents := line.Amount.Shift(2).IntPart()
		name := strings.ToUpper(line.EmployeeName)
		if len(name) > 40 {
			name = name[:40]
		}
		fmt.Fprintf(&buf, "%-18s%015d%-40s\n", line.BankAccount, cents, name)
	}
	return buf.Bytes()
}
