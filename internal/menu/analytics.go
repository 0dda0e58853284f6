package menu

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"

	"spendlog/internal/core"
)

func (m *Menu) analyticsMenu(ctx context.Context) error {
	return m.loop(ctx, "--Analytics--", []option{
		{"Sync Analytics", m.syncAnalytics},
		{"Monthly Trends", m.monthlyTrends},
		{"Category Breakdown", m.categoryBreakdown},
		{"Spending Insights", m.insights},
		{"Category Trends", m.categoryTrends},
		{"Search Expenses", m.search},
	}, "Back")
}

func (m *Menu) syncAnalytics(ctx context.Context) error {
	n, err := m.analytics.Sync(ctx)
	if err != nil {
		return err
	}
	m.success.Printfln("Analytics synced: %d records", n)
	return nil
}

func (m *Menu) renderMonthTotals(totals []core.MonthTotal) {
	rows := make([]table.Row, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, table.Row{title(t.Month), money(t.Total)})
	}
	m.render(table.Row{"Month", "Total"}, rows, 2)
}

func (m *Menu) monthlyTrends(ctx context.Context) error {
	trends, err := m.analytics.MonthlyTrends(ctx)
	if err != nil {
		return err
	}
	if len(trends) == 0 {
		m.info.Printfln("No expenses recorded yet.")
		return nil
	}
	m.renderMonthTotals(trends)
	return nil
}

func (m *Menu) categoryBreakdown(ctx context.Context) error {
	breakdown, err := m.analytics.CategoryBreakdown(ctx)
	if err != nil {
		return err
	}
	if len(breakdown) == 0 {
		m.info.Printfln("No expenses recorded yet.")
		return nil
	}

	rows := make([]table.Row, 0, len(breakdown))
	for _, c := range breakdown {
		rows = append(rows, table.Row{c.Category, money(c.Total)})
	}
	m.render(table.Row{"Category", "Total"}, rows, 2)
	return nil
}

func (m *Menu) insights(ctx context.Context) error {
	in, err := m.analytics.Insights(ctx)
	if err != nil {
		return err
	}

	m.render(table.Row{"Insight", "Value", "Amount"}, []table.Row{
		{"Total spending", "", money(in.TotalSpending)},
		{"Average per month", "", money(in.AvgMonthlySpending)},
		{"Highest spending month", title(in.HighestSpendingMonth.Month), money(in.HighestSpendingMonth.Amount)},
		{"Top spending category", in.TopSpendingCategory.Category, money(in.TopSpendingCategory.Amount)},
	}, 3)
	return nil
}

// categoryTrends shows one category's months, or every category when
// the answer is blank.
func (m *Menu) categoryTrends(ctx context.Context) error {
	category, err := m.prompt("Enter category name (blank for all):")
	if err != nil {
		return err
	}

	if category != "" {
		trends, err := m.analytics.TrendsForCategory(ctx, category)
		if err != nil {
			return err
		}
		if len(trends) == 0 {
			m.info.Printfln("No expenses recorded for category %s", category)
			return nil
		}
		m.renderMonthTotals(trends)
		return nil
	}

	trends, err := m.analytics.CategoryTrends(ctx)
	if err != nil {
		return err
	}
	if len(trends) == 0 {
		m.info.Printfln("No expenses recorded yet.")
		return nil
	}
	rows := make([]table.Row, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, table.Row{t.Category, title(t.Month), money(t.Total)})
	}
	m.render(table.Row{"Category", "Month", "Total"}, rows, 3)
	return nil
}

func (m *Menu) search(ctx context.Context) error {
	var (
		f   core.SearchFilter
		err error
	)
	if f.Query, err = m.prompt("Expense name contains (blank for any):"); err != nil {
		return err
	}
	if f.Category, err = m.prompt("Category (blank for any):"); err != nil {
		return err
	}
	if f.Month, err = m.prompt("Month (blank for any):"); err != nil {
		return err
	}
	if f.MinAmount, err = m.promptOptionalAmount("Minimum amount (blank for none):"); err != nil {
		return err
	}
	if f.MaxAmount, err = m.promptOptionalAmount("Maximum amount (blank for none):"); err != nil {
		return err
	}

	records, err := m.analytics.Search(ctx, f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		m.info.Printfln("No matching expenses.")
		return nil
	}

	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{title(r.Month), r.ExpenseName, r.Category, money(r.Amount)})
	}
	m.render(table.Row{"Month", "Expense", "Category", "Amount"}, rows, 4)
	return nil
}
