package http

import (
	"context"
	"io"

	"spendlog/internal/core"
	"spendlog/internal/snapshot"
)

// Tracker is the subset of the tracker service the API drives.
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

// Analytics is the subset of the analytics service the API drives.
type Analytics interface {
	Sync(ctx context.Context) (int, error)
	MonthlyTrends(ctx context.Context) ([]core.MonthTotal, error)
	CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error)
	Insights(ctx context.Context) (core.Insights, error)
	TrendsForCategory(ctx context.Context, category string) ([]core.MonthTotal, error)
	CategoryTrends(ctx context.Context) ([]core.CategoryMonthTotal, error)
	Search(ctx context.Context, f core.SearchFilter) ([]core.AnalyticsRecord, error)
	Summary(ctx context.Context) (core.Summary, error)
	ExportReport(ctx context.Context, w io.Writer) error
}
