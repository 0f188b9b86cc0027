// Package statement renders reward statements as one-page PDFs.
package statement

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

type Data struct {
	Reward       reward.Reward
	EmployeeName string
}

// Render prints the formula stored on the row, so a statement keeps
// describing how its amounts were computed after the configured formula
// changes.

func Render(data Data) ([]byte, error) {
	r := data.Reward
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Reward statement", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Reward statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.CellFormat(60, 8, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}
	line("Employee", fmt.Sprintf("%s (%s)", data.EmployeeName, r.EmployeeID))
	line("Period", fmt.Sprintf("%s, %s", period.FromTime(r.Period).String(), r.PeriodType))
	if r.Formula != "" {
		line("Formula", string(r.Formula))
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(60, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	row := func(label, value string) {
		pdf.CellFormat(60, 8, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, value, "", 1, "R", false, 0, "")
	}
	row("Base salary", r.BaseSalary.StringFixed(2))
	row("KPI total", r.KPITotal.StringFixed(2)+" %")
	row("Bonus", r.BonusAmount.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 12)
	row("Total", r.TotalAmount.StringFixed(2))

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Computed "+r.UpdatedAt.UTC().Format("2006-01-02 15:04 MST"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
