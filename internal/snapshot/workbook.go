package snapshot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"spendlog/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SheetExpenses   = "Expenses"
	SheetCategories = "Categories"
	SheetBudgets    = "Budgets"
)

// WriteWorkbook renders snap as an XLSX workbook with one sheet per
// collection, using the same columns as the CSV files.
func WriteWorkbook(w io.Writer, snap core.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, sheet := range []string{SheetCategories, SheetBudgets} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	rows := [][]any{{"Month", "Expense", "Amount"}}
	for _, m := range sortedMonths(snap.Expenses) {
		bucket := snap.Expenses[m]
		for _, name := range sortedKeys(bucket) {
			rows = append(rows, []any{m, name, bucket[name]})
		}
	}
	if err := writeRows(f, SheetExpenses, rows); err != nil {
		return err
	}

	rows = [][]any{{"Category", "Expenses"}}
	for _, name := range sortedKeys(snap.Categories) {
		members := append([]string(nil), snap.Categories[name]...)
		sort.Strings(members)
		rows = append(rows, []any{name, strings.Join(members, MemberSeparator)})
	}
	if err := writeRows(f, SheetCategories, rows); err != nil {
		return err
	}

	rows = [][]any{{"Month", "Limit"}}
	for _, m := range sortedMonths(snap.Budgets) {
		rows = append(rows, []any{m, snap.Budgets[m]})
	}
	if err := writeRows(f, SheetBudgets, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w: %w", core.ErrPersistence, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
