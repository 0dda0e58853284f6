// Package menu implements the numbered interactive text menu.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"spendlog/internal/core"
	"spendlog/internal/snapshot"
)

// Tracker is the tracker service surface the menu drives.
type Tracker interface {
	AddExpense(ctx context.Context, month, name string, amount float64) error
	UpdateExpense(ctx context.Context, month, name string, amount float64) error
	DeleteExpense(ctx context.Context, month, name string) error
	ListExpenses() map[string]map[string]float64
	ListMonth(month string) map[string]float64
	MonthlySum(month string) float64
	TotalSpent() float64

	CreateCategory(ctx context.Context, category string) error
	DeleteCategory(ctx context.Context, category string) error
	AssignCategory(ctx context.Context, category, name string) error
	CategoryMembers(category string) []string
	CategoryExpenses(category string) map[string]map[string]float64
	ListCategories() map[string][]string

	SetBudget(ctx context.Context, month string, limit float64) error
	AdjustBudget(ctx context.Context, month string, limit float64) error
	GetBudget(month string) (float64, bool)
	CheckBudget(month string) core.BudgetStatus
	ListBudgets() map[string]float64

	ClearExpenses(ctx context.Context) error
	ClearCategories(ctx context.Context) error
	ClearBudgets(ctx context.Context) error
	ClearAll(ctx context.Context) error
	ImportCSV(ctx context.Context, dir string) (snapshot.ImportReport, error)
	ExportCSV(ctx context.Context, dir string) error
	ExportWorkbook(ctx context.Context, w io.Writer) error
}

// Analytics is the analytics service surface the menu drives.
type Analytics interface {
	Sync(ctx context.Context) (int, error)
	MonthlyTrends(ctx context.Context) ([]core.MonthTotal, error)
	CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error)
	Insights(ctx context.Context) (core.Insights, error)
	TrendsForCategory(ctx context.Context, category string) ([]core.MonthTotal, error)
	CategoryTrends(ctx context.Context) ([]core.CategoryMonthTotal, error)
	Search(ctx context.Context, f core.SearchFilter) ([]core.AnalyticsRecord, error)
	ExportReport(ctx context.Context, w io.Writer) error
}

// Menu reads choices from an input stream and renders results to out.
type Menu struct {
	in        *bufio.Scanner
	out       io.Writer
	tracker   Tracker
	analytics Analytics
	dataDir   string

	info    *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	fail    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
}

// New builds a menu. dataDir is where CSV files and workbooks are read and written.
func New(in io.Reader, out io.Writer, tracker Tracker, analytics Analytics, dataDir string) *Menu {
	return &Menu{
		in:        bufio.NewScanner(in),
		out:       out,
		tracker:   tracker,
		analytics: analytics,
		dataDir:   dataDir,
		info:      pterm.Info.WithWriter(out),
		warning:   pterm.Warning.WithWriter(out),
		fail:      pterm.Error.WithWriter(out),
		success:   pterm.Success.WithWriter(out),
	}
}

type option struct {
	label  string
	action func(ctx context.Context) error
}

// Run shows the main menu until the user exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	err := m.loop(ctx, "--Expense Tracker--", []option{
		{"Manage Expenses", m.expensesMenu},
		{"Manage Categories", m.categoriesMenu},
		{"Manage Budgets", m.budgetsMenu},
		{"Analytics", m.analyticsMenu},
		{"Import / Export Data", m.dataMenu},
	}, "Exit")
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// loop renders options numbered from 1 with 0 as the way out and runs the
// chosen action. Action failures are reported and the loop continues;
// only end of input and context cancellation stop it.
func (m *Menu) loop(ctx context.Context, title string, options []option, exitLabel string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(m.out, title)
		for i, opt := range options {
			fmt.Fprintf(m.out, "%d. %s\n", i+1, opt.label)
		}
		fmt.Fprintf(m.out, "0. %s\n", exitLabel)

		line, err := m.prompt("Select an option:")
		if err != nil {
			return err
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(m.out, "Please enter a valid number.")
			continue
		}
		if choice == 0 {
			return nil
		}
		if choice < 0 || choice > len(options) {
			m.fail.Printfln("Invalid option.")
			continue
		}

		if err := options[choice-1].action(ctx); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return err
			}
			m.fail.Printfln("%v", err)
		}
	}
}

// prompt writes label and returns the next trimmed input line.
func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label, " ")
	if !m.in.Scan() {
		fmt.Fprintln(m.out)
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

var errInvalidInput = errors.New("invalid input")

// promptAmount reads a finite number; bad input never reaches the services.
func (m *Menu) promptAmount(label string) (float64, error) {
	line, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	v, err := core.ParseAmount(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid amount", errInvalidInput, line)
	}
	return v, nil
}

// promptOptionalAmount returns nil for a blank answer.
func (m *Menu) promptOptionalAmount(label string) (*float64, error) {
	line, err := m.prompt(label)
	if err != nil || line == "" {
		return nil, err
	}
	v, err := core.ParseAmount(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid amount", errInvalidInput, line)
	}
	return &v, nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// sortedMonths orders month keys by calendar position, unknown names last.
func sortedMonths[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := core.NormalizeMonth(keys[i]).Index(), core.NormalizeMonth(keys[j]).Index()
		if a == 0 {
			a = 13
		}
		if b == 0 {
			b = 13
		}
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
