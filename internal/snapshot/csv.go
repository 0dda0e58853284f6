package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"spendlog/internal/core"
)

// CSV exchange files. Format version 2: the category member list is
// joined with MemberSeparator.
const (
	ExpensesFile   = "expenses.csv"
	CategoriesFile = "categories.csv"
	BudgetsFile    = "budgets.csv"

	MemberSeparator = ";"
)

var (
	expenseHeader  = []string{"Month", "Expense", "Amount"}
	categoryHeader = []string{"Category", "Expenses"}
	budgetHeader   = []string{"Month", "Limit"}
)

// SkippedRow records a CSV row that could not be imported.
type SkippedRow struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Expenses   int          `json:"expenses"`
	Categories int          `json:"categories"`
	Budgets    int          `json:"budgets"`
	Missing    []string     `json:"missing"`
	Skipped    []SkippedRow `json:"skipped"`
}

// ReadCSV parses the three exchange files in dir into a snapshot of rows
// to merge. Missing files and malformed rows are skipped and reported.
func ReadCSV(ctx context.Context, dir string) (core.Snapshot, ImportReport, error) {
	data := core.NewSnapshot()
	report := ImportReport{Missing: []string{}, Skipped: []SkippedRow{}}

	err := readFile(ctx, dir, ExpensesFile, expenseHeader, &report, func(line int, rec map[string]string) error {
		m, err := core.ParseMonth(rec["Month"])
		if err != nil {
			return err
		}
		name := rec["Expense"]
		if err := core.ValidateName(name); err != nil {
			return err
		}
		amount, err := core.ParseAmount(rec["Amount"])
		if err != nil {
			return err
		}
		if data.Expenses[string(m)] == nil {
			data.Expenses[string(m)] = make(map[string]float64)
		}
		data.Expenses[string(m)][name] = amount
		report.Expenses++
		return nil
	})
	if err != nil {
		return core.Snapshot{}, report, err
	}

	err = readFile(ctx, dir, CategoriesFile, categoryHeader, &report, func(line int, rec map[string]string) error {
		category := rec["Category"]
		if err := core.ValidateName(category); err != nil {
			return err
		}
		data.Categories[category] = splitMembers(rec["Expenses"])
		report.Categories++
		return nil
	})
	if err != nil {
		return core.Snapshot{}, report, err
	}

	err = readFile(ctx, dir, BudgetsFile, budgetHeader, &report, func(line int, rec map[string]string) error {
		m, err := core.ParseMonth(rec["Month"])
		if err != nil {
			return err
		}
		limit, err := core.ParseAmount(rec["Limit"])
		if err != nil {
			return err
		}
		data.Budgets[string(m)] = limit
		report.Budgets++
		return nil
	})
	if err != nil {
		return core.Snapshot{}, report, err
	}

	return data, report, nil
}

func readFile(ctx context.Context, dir, name string, header []string, report *ImportReport, apply func(line int, rec map[string]string) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "CSV file not found, skipping", "file", path)
		report.Missing = append(report.Missing, name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", path, core.ErrPersistence, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w: %w", path, core.ErrPersistence, err)
	}
	columns, err := columnIndex(first, header)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", path, core.ErrPersistence, err)
	}

	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read %s line %d: %w: %w", path, line, core.ErrPersistence, err)
		}

		rec := make(map[string]string, len(header))
		for col, idx := range columns {
			if idx < len(row) {
				rec[col] = row[idx]
			}
		}
		if err := apply(line, rec); err != nil {
			slog.WarnContext(ctx, "Skipping malformed CSV row", "file", name, "line", line, "error", err)
			report.Skipped = append(report.Skipped, SkippedRow{File: name, Line: line, Reason: err.Error()})
		}
	}
}

func columnIndex(got, want []string) (map[string]int, error) {
	idx := make(map[string]int, len(want))
	for i, col := range got {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	out := make(map[string]int, len(want))
	for _, col := range want {
		i, ok := idx[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		out[col] = i
	}
	return out, nil
}

func splitMembers(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, MemberSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// WriteCSV writes snap into the three exchange files in dir. Rows are
// ordered by calendar month, then name.
func WriteCSV(ctx context.Context, dir string, snap core.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w: %w", core.ErrPersistence, err)
	}

	var expenses [][]string
	for _, m := range sortedMonths(snap.Expenses) {
		bucket := snap.Expenses[m]
		for _, name := range sortedKeys(bucket) {
			expenses = append(expenses, []string{m, name, formatFloat(bucket[name])})
		}
	}

	var categories [][]string
	for _, name := range sortedKeys(snap.Categories) {
		members := append([]string(nil), snap.Categories[name]...)
		sort.Strings(members)
		categories = append(categories, []string{name, strings.Join(members, MemberSeparator)})
	}

	var budgets [][]string
	for _, m := range sortedMonths(snap.Budgets) {
		budgets = append(budgets, []string{m, formatFloat(snap.Budgets[m])})
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{ExpensesFile, expenseHeader, expenses},
		{CategoriesFile, categoryHeader, categories},
		{BudgetsFile, budgetHeader, budgets},
	}
	for _, file := range files {
		if err := writeFile(filepath.Join(dir, file.name), file.header, file.rows); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "CSV export written", "dir", dir,
		"expenses", len(expenses), "categories", len(categories), "budgets", len(budgets))
	return nil
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", path, core.ErrPersistence, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w: %w", path, core.ErrPersistence, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w: %w", path, core.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", path, core.ErrPersistence, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedMonths orders month keys by calendar position; unknown keys sort last.
func sortedMonths[V any](m map[string]V) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return monthRank(keys[i]) < monthRank(keys[j])
	})
	return keys
}

func monthRank(s string) int {
	if i := core.NormalizeMonth(s).Index(); i > 0 {
		return i
	}
	return 13
}
