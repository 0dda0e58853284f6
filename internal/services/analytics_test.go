package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalytics(t *testing.T) (*AnalyticsService, *TrackerService) {
	t.Helper()
	repo, err := storage.NewAnalyticsRepository(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tracker, _, _ := newTestTracker(t)
	return NewAnalyticsService(repo, tracker), tracker
}

func TestAnalytics_QueriesReflectLatestState(t *testing.T) {
	svc, tracker := newTestAnalytics(t)
	ctx := context.Background()

	trends, err := svc.MonthlyTrends(ctx)
	require.NoError(t, err)
	assert.Empty(t, trends)

	require.NoError(t, tracker.AddExpense(ctx, "february", "food", 200))
	require.NoError(t, tracker.AddExpense(ctx, "january", "rent", 1000))

	trends, err = svc.MonthlyTrends(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{
		{Month: "january", Total: 1000},
		{Month: "february", Total: 200},
	}, trends)

	require.NoError(t, tracker.DeleteExpense(ctx, "february", "food"))

	trends, err = svc.MonthlyTrends(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{{Month: "january", Total: 1000}}, trends)
}

func TestAnalytics_Sync(t *testing.T) {
	svc, tracker := newTestAnalytics(t)
	ctx := context.Background()
	require.NoError(t, tracker.AddExpense(ctx, "january", "rent", 1000))
	require.NoError(t, tracker.AddExpense(ctx, "january", "food", 100))

	n, err := svc.Sync(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAnalytics_BreakdownAndInsights(t *testing.T) {
	svc, tracker := newTestAnalytics(t)
	ctx := context.Background()
	require.NoError(t, tracker.AddExpense(ctx, "january", "rent", 1000))
	require.NoError(t, tracker.AddExpense(ctx, "february", "rent", 1000))
	require.NoError(t, tracker.AddExpense(ctx, "february", "food", 200))
	require.NoError(t, tracker.CreateCategory(ctx, "Housing"))
	require.NoError(t, tracker.AssignCategory(ctx, "Housing", "rent"))

	breakdown, err := svc.CategoryBreakdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryTotal{
		{Category: "Housing", Total: 2000},
		{Category: core.Uncategorized, Total: 200},
	}, breakdown)

	insights, err := svc.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2200.0, insights.TotalSpending)
	assert.Equal(t, 1100.0, insights.AvgMonthlySpending)
	assert.Equal(t, core.MonthAmount{Month: "february", Amount: 1200}, insights.HighestSpendingMonth)
	assert.Equal(t, core.CategoryAmount{Category: "Housing", Amount: 2000}, insights.TopSpendingCategory)

	housing, err := svc.TrendsForCategory(ctx, "Housing")
	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{
		{Month: "january", Total: 1000},
		{Month: "february", Total: 1000},
	}, housing)

	all, err := svc.CategoryTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, breakdown, summary.CategoryBreakdown)
	assert.Equal(t, insights, summary.Insights)
}

func TestAnalytics_Search(t *testing.T) {
	svc, tracker := newTestAnalytics(t)
	ctx := context.Background()
	require.NoError(t, tracker.AddExpense(ctx, "january", "rent", 1000))
	require.NoError(t, tracker.AddExpense(ctx, "january", "rental car", 300))
	require.NoError(t, tracker.AddExpense(ctx, "march", "food", 50))

	min := 500.0
	records, err := svc.Search(ctx, core.SearchFilter{Query: "rent", MinAmount: &min})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rent", records[0].ExpenseName)
	assert.Equal(t, core.Uncategorized, records[0].Category)
}

type failingRepository struct {
	AnalyticsRepository
}

func (failingRepository) Rebuild(context.Context, map[string]map[string]float64, map[string][]string) (int, error) {
	return 0, errors.New("disk full")
}

func TestAnalytics_RebuildFailureIsReturned(t *testing.T) {
	tracker, _, _ := newTestTracker(t)
	svc := NewAnalyticsService(failingRepository{}, tracker)

	_, err := svc.Insights(context.Background())
	assert.ErrorContains(t, err, "disk full")

	_, err = svc.Sync(context.Background())
	assert.ErrorContains(t, err, "sync analytics")
}

func TestAnalytics_ExportReport(t *testing.T) {
	svc, tracker := newTestAnalytics(t)
	ctx := context.Background()
	require.NoError(t, tracker.AddExpense(ctx, "january", "rent", 1000))
	require.NoError(t, tracker.SetBudget(ctx, "january", 800))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportReport(ctx, &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

// shiftingSource returns a different state on every read.
type shiftingSource struct {
	reads int
}

func (s *shiftingSource) Snapshot() core.Snapshot {
	s.reads++
	snap := core.NewSnapshot()
	snap.Expenses["january"] = map[string]float64{"rent": float64(1000 * s.reads)}
	snap.Budgets["january"] = 1500
	return snap
}

func TestAnalytics_ReportReadsOneSnapshot(t *testing.T) {
	repo, err := storage.NewAnalyticsRepository(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	source := &shiftingSource{}
	svc := NewAnalyticsService(repo, source)

	summary, statuses, err := svc.reportData(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, source.reads)
	assert.Equal(t, 1000.0, summary.Insights.TotalSpending)
	require.Len(t, statuses, 1)
	assert.Equal(t, 1000.0, statuses[0].Spent)
	assert.Equal(t, 500.0, statuses[0].Remaining)
}
