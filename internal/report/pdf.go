// Package report renders a printable spending report.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"spendlog/internal/core"
)

var (
	headerColor       = [3]int{44, 62, 80}
	headerTextColor   = [3]int{255, 255, 255}
	sectionTitleColor = [3]int{44, 62, 80}
	bodyTextColor     = [3]int{33, 33, 33}
	lineColor         = [3]int{189, 195, 199}
	overColor         = [3]int{192, 0, 0}
	underColor        = [3]int{0, 128, 0}
)

const pageWidth = 190.0

// WritePDF writes a report with the headline insights, monthly totals,
// the category breakdown and every budget's status.
func WritePDF(w io.Writer, summary core.Summary, budgets []core.BudgetStatus) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "  Spending Report", "", 1, "L", true, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, title)
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+pageWidth, pdf.GetY())
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	row := func(cells ...string) {
		width := pageWidth / float64(len(cells))
		for i, c := range cells {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(width, 6, tr(c), "", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	head := func(cells ...string) {
		pdf.SetFont("Arial", "B", 10)
		row(cells...)
		pdf.SetFont("Arial", "", 10)
	}

	in := summary.Insights
	section("Insights")
	row("Total spending", money(in.TotalSpending))
	row("Average per month", money(in.AvgMonthlySpending))
	row("Highest spending month", fmt.Sprintf("%s (%s)", in.HighestSpendingMonth.Month, money(in.HighestSpendingMonth.Amount)))
	row("Top spending category", fmt.Sprintf("%s (%s)", in.TopSpendingCategory.Category, money(in.TopSpendingCategory.Amount)))
	pdf.Ln(6)

	section("Monthly Trends")
	head("Month", "Total")
	for _, t := range summary.MonthlyTrends {
		row(t.Month, money(t.Total))
	}
	pdf.Ln(6)

	section("Category Breakdown")
	head("Category", "Total")
	for _, c := range summary.CategoryBreakdown {
		row(c.Category, money(c.Total))
	}
	pdf.Ln(6)

	section("Budgets")
	if len(budgets) == 0 {
		row("No budgets set.")
	} else {
		head("Month", "Spent", "Budget", "Remaining")
		sorted := append([]core.BudgetStatus(nil), budgets...)
		sort.Slice(sorted, func(i, j int) bool {
			return core.NormalizeMonth(sorted[i].Month).Index() < core.NormalizeMonth(sorted[j].Month).Index()
		})
		for _, b := range sorted {
			c := underColor
			if b.OverBudget {
				c = overColor
			}
			pdf.SetTextColor(c[0], c[1], c[2])
			row(b.Month, money(b.Spent), money(b.Budget), money(b.Remaining))
		}
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
