package menu

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"spendlog/internal/core"
)

func (m *Menu) expensesMenu(ctx context.Context) error {
	return m.loop(ctx, "--Expenses--", []option{
		{"Add Expense", m.addExpense},
		{"Update Expense", m.updateExpense},
		{"Delete Expense", m.deleteExpense},
		{"View Expenses", m.viewExpenses},
		{"View Summary Of Expenses", m.viewSummary},
		{"View Summary Of Expenses For Specific Month", m.viewMonthSummary},
	}, "Back")
}

func (m *Menu) addExpense(ctx context.Context) error {
	month, err := m.prompt("Enter month for expense:")
	if err != nil {
		return err
	}
	name, err := m.prompt("Enter expense name:")
	if err != nil {
		return err
	}
	amount, err := m.promptAmount("Enter expense cost:")
	if err != nil {
		return err
	}

	if err := m.tracker.AddExpense(ctx, month, name, amount); err != nil {
		return err
	}
	m.success.Printfln("Added %s: %s in %s", name, money(amount), core.NormalizeMonth(month))
	return nil
}

func (m *Menu) updateExpense(ctx context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	name, err := m.prompt("Enter expense to change:")
	if err != nil {
		return err
	}
	amount, err := m.promptAmount("Enter new expense amount:")
	if err != nil {
		return err
	}

	if err := m.tracker.UpdateExpense(ctx, month, name, amount); err != nil {
		return err
	}
	m.success.Printfln("Expense %s updated to %s", name, money(amount))
	return nil
}

func (m *Menu) deleteExpense(ctx context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	if _, err := core.ParseMonth(month); err != nil {
		return fmt.Errorf("%q: %w", month, err)
	}
	name, err := m.prompt("Enter expense to delete:")
	if err != nil {
		return err
	}

	if _, ok := m.tracker.ListMonth(month)[name]; !ok {
		m.warning.Printfln("No expenses recorded with name %s in %s", name, core.NormalizeMonth(month))
		return nil
	}
	if err := m.tracker.DeleteExpense(ctx, month, name); err != nil {
		return err
	}
	m.success.Printfln("Expense %s removed from %s", name, core.NormalizeMonth(month))
	return nil
}

func (m *Menu) viewExpenses(context.Context) error {
	all := m.tracker.ListExpenses()

	var rows []table.Row
	for _, month := range sortedMonths(all) {
		for _, name := range sortedKeys(all[month]) {
			rows = append(rows, table.Row{title(month), name, money(all[month][name])})
		}
	}
	if len(rows) == 0 {
		m.info.Printfln("No expenses recorded yet.")
		return nil
	}

	m.render(table.Row{"Month", "Expense", "Amount"}, rows, 3)
	return nil
}

func (m *Menu) viewSummary(context.Context) error {
	m.info.Printfln("Total across all months: %s", money(m.tracker.TotalSpent()))
	return nil
}

func (m *Menu) viewMonthSummary(context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	if len(m.tracker.ListMonth(month)) == 0 {
		m.info.Printfln("No expenses recorded for %s", core.NormalizeMonth(month))
		return nil
	}
	m.info.Printfln("Total for %s: %s", core.NormalizeMonth(month), money(m.tracker.MonthlySum(month)))
	return nil
}
