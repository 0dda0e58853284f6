package menu

import (
	"context"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func (m *Menu) categoriesMenu(ctx context.Context) error {
	return m.loop(ctx, "--Categories--", []option{
		{"Create Category", m.createCategory},
		{"Add To Category", m.addToCategory},
		{"Filter By Category", m.filterByCategory},
		{"View Categories", m.viewCategories},
		{"Delete Category", m.deleteCategory},
	}, "Back")
}

func (m *Menu) createCategory(ctx context.Context) error {
	category, err := m.prompt("Enter category name:")
	if err != nil {
		return err
	}
	if err := m.tracker.CreateCategory(ctx, category); err != nil {
		return err
	}
	m.success.Printfln("Category %s created.", category)
	return nil
}

func (m *Menu) addToCategory(ctx context.Context) error {
	category, err := m.prompt("Enter category name:")
	if err != nil {
		return err
	}
	name, err := m.prompt("Enter expense to be added:")
	if err != nil {
		return err
	}
	if err := m.tracker.AssignCategory(ctx, category, name); err != nil {
		return err
	}
	m.success.Printfln("Expense %s added to %s", name, category)
	return nil
}

func (m *Menu) filterByCategory(context.Context) error {
	category, err := m.prompt("Enter category name:")
	if err != nil {
		return err
	}
	if _, ok := m.tracker.ListCategories()[category]; !ok {
		m.warning.Printfln("Category %s not found", category)
		return nil
	}

	matches := m.tracker.CategoryExpenses(category)
	var rows []table.Row
	for _, month := range sortedMonths(matches) {
		for _, name := range sortedKeys(matches[month]) {
			rows = append(rows, table.Row{title(month), name, money(matches[month][name])})
		}
	}
	if len(rows) == 0 {
		m.info.Printfln("No expenses assigned to category %s", category)
		return nil
	}

	m.info.Printfln("Expenses in category %s", category)
	m.render(table.Row{"Month", "Expense", "Amount"}, rows, 3)
	return nil
}

func (m *Menu) viewCategories(context.Context) error {
	categories := m.tracker.ListCategories()
	if len(categories) == 0 {
		m.info.Printfln("No categories created yet.")
		return nil
	}

	rows := make([]table.Row, 0, len(categories))
	for _, name := range sortedKeys(categories) {
		rows = append(rows, table.Row{name, strings.Join(categories[name], ", ")})
	}
	m.render(table.Row{"Category", "Expenses"}, rows)
	return nil
}

func (m *Menu) deleteCategory(ctx context.Context) error {
	category, err := m.prompt("Enter category name:")
	if err != nil {
		return err
	}
	if _, ok := m.tracker.ListCategories()[category]; !ok {
		m.warning.Printfln("Category %s not found", category)
		return nil
	}
	if err := m.tracker.DeleteCategory(ctx, category); err != nil {
		return err
	}
	m.success.Printfln("Category %s deleted.", category)
	return nil
}
