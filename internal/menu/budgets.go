package menu

import (
	"context"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"spendlog/internal/core"
)

func (m *Menu) budgetsMenu(ctx context.Context) error {
	return m.loop(ctx, "--Budgets--", []option{
		{"Set Budget", m.setBudget},
		{"Adjust Budget", m.adjustBudget},
		{"Check Budget", m.checkBudget},
		{"View Budgets", m.viewBudgets},
	}, "Back")
}

func (m *Menu) setBudget(ctx context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	limit, err := m.promptAmount("Enter the desired budget:")
	if err != nil {
		return err
	}
	if err := m.tracker.SetBudget(ctx, month, limit); err != nil {
		return err
	}
	m.success.Printfln("Budget of %s set for %s", money(limit), core.NormalizeMonth(month))
	return nil
}

func (m *Menu) adjustBudget(ctx context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	limit, err := m.promptAmount("Enter new budget:")
	if err != nil {
		return err
	}
	if err := m.tracker.AdjustBudget(ctx, month, limit); err != nil {
		return err
	}
	m.success.Printfln("Budget for %s changed to %s", core.NormalizeMonth(month), money(limit))
	return nil
}

func (m *Menu) checkBudget(context.Context) error {
	month, err := m.prompt("Enter month:")
	if err != nil {
		return err
	}
	if _, ok := m.tracker.GetBudget(month); !ok {
		m.warning.Printfln("No budget recorded for %s", core.NormalizeMonth(month))
		return nil
	}

	status := m.tracker.CheckBudget(month)
	remaining := underCell(money(status.Remaining))
	if status.OverBudget {
		remaining = overCell(money(status.Remaining))
	}
	m.render(table.Row{"Month", "Spent", "Budget", "Remaining"}, []table.Row{
		{title(status.Month), money(status.Spent), money(status.Budget), remaining},
	}, 2, 3, 4)

	if status.OverBudget {
		m.warning.Printfln("Total expenses for %s have exceeded the budget. Deficit: %s",
			status.Month, money(math.Abs(status.Remaining)))
		return nil
	}
	m.success.Printfln("Total expenses for %s have not exceeded the budget. Remaining: %s",
		status.Month, money(status.Remaining))
	return nil
}

func (m *Menu) viewBudgets(context.Context) error {
	budgets := m.tracker.ListBudgets()
	if len(budgets) == 0 {
		m.info.Printfln("No budgets set yet.")
		return nil
	}

	rows := make([]table.Row, 0, len(budgets))
	for _, month := range sortedMonths(budgets) {
		rows = append(rows, table.Row{title(month), money(budgets[month])})
	}
	m.render(table.Row{"Month", "Budget"}, rows, 2)
	return nil
}
