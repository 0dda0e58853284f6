package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spendlog/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) *AnalyticsRepository {
	t.Helper()
	repo, err := NewAnalyticsRepository(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rebuild(t *testing.T, repo *AnalyticsRepository, expenses map[string]map[string]float64, categories map[string][]string) {
	t.Helper()
	_, err := repo.Rebuild(context.Background(), expenses, categories)
	require.NoError(t, err)
}

func f(v float64) *float64 { return &v }

func TestRebuild_ReplacesAllRecords(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	n, err := repo.Rebuild(ctx, map[string]map[string]float64{
		"january": {"rent": 1000, "food": 100},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Rebuild(ctx, map[string]map[string]float64{
		"march": {"gym": 30},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := repo.Search(ctx, core.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].ID, "ids restart on every rebuild")
	assert.Equal(t, core.Uncategorized, records[0].Category)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), records[0].SyncedAt)
}

func TestRebuild_SkipsInvalidMonths(t *testing.T) {
	repo := setupTestRepository(t)

	n, err := repo.Rebuild(context.Background(), map[string]map[string]float64{
		"january": {"rent": 1000},
		"smarch":  {"x": 1},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRebuild_LastCategoryByNameWins(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"january": {"coffee": 5},
	}, map[string][]string{
		"Zed":   {"coffee"},
		"Alpha": {"coffee"},
		"Mid":   {"coffee"},
	})

	records, err := repo.Search(context.Background(), core.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Zed", records[0].Category)
}

func TestMonthlyTrends_CalendarOrder(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"february": {"rent": 1000, "food": 200},
		"january":  {"rent": 1000},
		"december": {},
	}, nil)

	trends, err := repo.MonthlyTrends(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{
		{Month: "january", Total: 1000},
		{Month: "february", Total: 1200},
	}, trends)
}

func TestCategoryBreakdown_DescendingByTotal(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"january":  {"rent": 1000, "food": 100, "misc": 5},
		"february": {"rent": 1000, "food": 150},
	}, map[string][]string{
		"Housing": {"rent"},
		"Food":    {"food"},
	})

	breakdown, err := repo.CategoryBreakdown(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []core.CategoryTotal{
		{Category: "Housing", Total: 2000},
		{Category: "Food", Total: 250},
		{Category: core.Uncategorized, Total: 5},
	}, breakdown)
}

func TestInsights_Empty(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, nil, nil)

	in, err := repo.Insights(context.Background())

	require.NoError(t, err)
	assert.Equal(t, core.Insights{
		TotalSpending:        0,
		AvgMonthlySpending:   0,
		HighestSpendingMonth: core.MonthAmount{Month: "None", Amount: 0},
		TopSpendingCategory:  core.CategoryAmount{Category: "None", Amount: 0},
	}, in)
}

func TestInsights_WithData(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"january":  {"rent": 1000},
		"february": {"rent": 1000, "food": 200},
	}, map[string][]string{"Housing": {"rent"}})

	in, err := repo.Insights(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2200.0, in.TotalSpending)
	assert.Equal(t, 1100.0, in.AvgMonthlySpending)
	assert.Equal(t, core.MonthAmount{Month: "february", Amount: 1200}, in.HighestSpendingMonth)
	assert.Equal(t, core.CategoryAmount{Category: "Housing", Amount: 2000}, in.TopSpendingCategory)
}

func TestInsights_TiesAreDeterministic(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"march":   {"b": 10},
		"january": {"a": 10},
	}, map[string][]string{"Beta": {"b"}, "Alpha": {"a"}})

	in, err := repo.Insights(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "january", in.HighestSpendingMonth.Month)
	assert.Equal(t, "Alpha", in.TopSpendingCategory.Category)
}

func TestTrendsForCategory(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"march":   {"rent": 900, "food": 50},
		"january": {"rent": 1000},
	}, map[string][]string{"Housing": {"rent"}})

	trends, err := repo.TrendsForCategory(context.Background(), "Housing")
	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{{Month: "january", Total: 1000}, {Month: "march", Total: 900}}, trends)

	none, err := repo.TrendsForCategory(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategoryTrends_OrderedByCategoryThenMonth(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"march":   {"rent": 900, "food": 50},
		"january": {"rent": 1000, "food": 70},
	}, map[string][]string{"Housing": {"rent"}, "Food": {"food"}})

	trends, err := repo.CategoryTrends(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []core.CategoryMonthTotal{
		{Category: "Food", Month: "january", Total: 70},
		{Category: "Food", Month: "march", Total: 50},
		{Category: "Housing", Month: "january", Total: 1000},
		{Category: "Housing", Month: "march", Total: 900},
	}, trends)
}

func TestSearch_Filters(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{
		"january":  {"Rent": 1000, "lunch": 50, "dinner": 150, "snack": 49.99},
		"february": {"lunch": 151},
	}, map[string][]string{"Food": {"lunch", "dinner", "snack"}})

	names := func(recs []core.AnalyticsRecord) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.Month+"/"+r.ExpenseName)
		}
		return out
	}

	tests := []struct {
		name   string
		filter core.SearchFilter
		want   []string
	}{
		{
			name:   "inclusive amount range",
			filter: core.SearchFilter{MinAmount: f(50), MaxAmount: f(150)},
			want:   []string{"january/lunch", "january/dinner"},
		},
		{
			name:   "case sensitive query",
			filter: core.SearchFilter{Query: "rent"},
			want:   []string{},
		},
		{
			name:   "substring query",
			filter: core.SearchFilter{Query: "nch"},
			want:   []string{"february/lunch", "january/lunch"},
		},
		{
			name:   "category and month",
			filter: core.SearchFilter{Category: "Food", Month: "February"},
			want:   []string{"february/lunch"},
		},
		{
			name:   "uncategorized",
			filter: core.SearchFilter{Category: core.Uncategorized},
			want:   []string{"january/Rent"},
		},
		{
			name:   "no filters returns reverse insertion order",
			filter: core.SearchFilter{},
			want:   []string{"february/lunch", "january/snack", "january/lunch", "january/dinner", "january/Rent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSummary(t *testing.T) {
	repo := setupTestRepository(t)
	rebuild(t, repo, map[string]map[string]float64{"june": {"trip": 300}}, nil)

	s, err := repo.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []core.MonthTotal{{Month: "june", Total: 300}}, s.MonthlyTrends)
	assert.Equal(t, []core.CategoryTotal{{Category: core.Uncategorized, Total: 300}}, s.CategoryBreakdown)
	assert.Equal(t, 300.0, s.Insights.TotalSpending)
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")

	repo, err := NewAnalyticsRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Reopening an up-to-date database is a no-op.
	repo, err = NewAnalyticsRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestRebuild_WaitsForAnotherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	server, err := NewAnalyticsRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	worker, err := NewAnalyticsRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { worker.Close() })

	ctx := context.Background()
	tx, err := worker.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `DELETE FROM expense_analytics`)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := server.Rebuild(ctx, map[string]map[string]float64{"january": {"rent": 1000}}, nil)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("rebuild finished while another writer held the lock: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, tx.Commit())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(busyTimeout):
		t.Fatal("rebuild did not resume after the lock was released")
	}

	count, err := server.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
