package menu

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"spendlog/internal/core"
)

// Export file names inside the data directory.
const (
	WorkbookFile = "spendlog.xlsx"
	ReportFile   = "spendlog-report.pdf"
)

func (m *Menu) dataMenu(ctx context.Context) error {
	return m.loop(ctx, "--Data--", []option{
		{"Import From CSV", m.importCSV},
		{"Export To CSV", m.exportCSV},
		{"Export To Workbook", m.exportWorkbook},
		{"Export PDF Report", m.exportReport},
		{"Clear Expenses", m.confirmed("all expenses", m.tracker.ClearExpenses)},
		{"Clear Categories", m.confirmed("all categories", m.tracker.ClearCategories)},
		{"Clear Budgets", m.confirmed("all budgets", m.tracker.ClearBudgets)},
		{"Clear All Data", m.confirmed("all data", m.tracker.ClearAll)},
	}, "Back")
}

func (m *Menu) importCSV(ctx context.Context) error {
	report, err := m.tracker.ImportCSV(ctx, m.dataDir)
	if err != nil {
		return err
	}

	for _, name := range report.Missing {
		m.warning.Printfln("File %s not found, skipped", name)
	}
	for _, row := range report.Skipped {
		m.warning.Printfln("Skipped %s line %d: %s", row.File, row.Line, row.Reason)
	}
	m.success.Printfln("Imported %d expenses, %d categories and %d budgets from %s",
		report.Expenses, report.Categories, report.Budgets, m.dataDir)
	return nil
}

func (m *Menu) exportCSV(ctx context.Context) error {
	if err := m.tracker.ExportCSV(ctx, m.dataDir); err != nil {
		return err
	}
	m.success.Printfln("Data exported to %s", m.dataDir)
	return nil
}

func (m *Menu) exportWorkbook(ctx context.Context) error {
	path := filepath.Join(m.dataDir, WorkbookFile)
	if err := writeFile(path, func(w io.Writer) error { return m.tracker.ExportWorkbook(ctx, w) }); err != nil {
		return err
	}
	m.success.Printfln("Workbook written to %s", path)
	return nil
}

func (m *Menu) exportReport(ctx context.Context) error {
	path := filepath.Join(m.dataDir, ReportFile)
	if err := writeFile(path, func(w io.Writer) error { return m.analytics.ExportReport(ctx, w) }); err != nil {
		return err
	}
	m.success.Printfln("Report written to %s", path)
	return nil
}

// writeFile creates path and hands it to render.
func writeFile(path string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w: %w", core.ErrPersistence, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", filepath.Base(path), core.ErrPersistence, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w: %w", filepath.Base(path), core.ErrPersistence, cerr)
		}
	}()
	return render(f)
}

// confirmed wraps a destructive action behind a y/N question.
func (m *Menu) confirmed(what string, clear func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		answer, err := m.prompt(fmt.Sprintf("Delete %s? [y/N]:", what))
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			m.info.Printfln("Nothing deleted.")
			return nil
		}
		if err := clear(ctx); err != nil {
			return err
		}
		m.success.Printfln("Deleted %s.", what)
		return nil
	}
}
