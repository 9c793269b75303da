package payroll

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PayslipPDF renders a payslip as a one-page PDF.
func PayslipPDF(slip Payslip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Employee: "+slip.EmployeeName)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Pay date: "+slip.PayDate.Format("2006-01-02"))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Batch: "+slip.BatchID)
	pdf.Ln(10)

	section := func(title string, kinds []ConceptKind, amounts map[ConceptKind]decimal.Decimal) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, title)
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 10)
		for _, kind := range kinds {
			amount, ok := amounts[kind]
			if !ok {
				continue
			}
			pdf.CellFormat(120, 6, string(kind), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, "$ "+amount.StringFixed(2), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	section("Perceptions", perceptionKinds, slip.Concepts.Perceptions)
	section("Deductions", deductionKinds, slip.Concepts.Deductions)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 7, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "$ "+slip.Concepts.NetPay.StringFixed(2), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
