package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
	"spendlog/internal/report"
)

// AnalyticsRepository is the rebuildable projection queried by AnalyticsService.
type AnalyticsRepository interface {
	Rebuild(ctx context.Context, expenses map[string]map[string]float64, categories map[string][]string) (int, error)
	MonthlyTrends(ctx context.Context) ([]core.MonthTotal, error)
	CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error)
	Insights(ctx context.Context) (core.Insights, error)
	TrendsForCategory(ctx context.Context, category string) ([]core.MonthTotal, error)
	CategoryTrends(ctx context.Context) ([]core.CategoryMonthTotal, error)
	Search(ctx context.Context, f core.SearchFilter) ([]core.AnalyticsRecord, error)
	Summary(ctx context.Context) (core.Summary, error)
}

// SnapshotSource provides the current primary state.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

// AnalyticsService answers aggregate queries. Each query first rebuilds
// the projection from the source so results always reflect the latest state.
type AnalyticsService struct {
	mu     sync.Mutex
	repo   AnalyticsRepository
	source SnapshotSource
}

func NewAnalyticsService(repo AnalyticsRepository, source SnapshotSource) *AnalyticsService {
	return &AnalyticsService{repo: repo, source: source}
}

// Sync rebuilds the projection and returns the number of records written.
func (s *AnalyticsService) Sync(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(ctx)
}

func (s *AnalyticsService) sync(ctx context.Context) (int, error) {
	return s.syncFrom(ctx, s.source.Snapshot())
}

func (s *AnalyticsService) syncFrom(ctx context.Context, snap core.Snapshot) (int, error) {
	n, err := s.repo.Rebuild(ctx, snap.Expenses, snap.Categories)
	if err != nil {
		return 0, fmt.Errorf("sync analytics: %w", err)
	}
	slog.DebugContext(ctx, "Analytics synced", "records", n)
	return n, nil
}

func query[T any](ctx context.Context, s *AnalyticsService, fn func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if _, err := s.sync(ctx); err != nil {
		return zero, err
	}
	return fn(ctx)
}

func (s *AnalyticsService) MonthlyTrends(ctx context.Context) ([]core.MonthTotal, error) {
	return query(ctx, s, s.repo.MonthlyTrends)
}

func (s *AnalyticsService) CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error) {
	return query(ctx, s, s.repo.CategoryBreakdown)
}

func (s *AnalyticsService) Insights(ctx context.Context) (core.Insights, error) {
	return query(ctx, s, s.repo.Insights)
}

func (s *AnalyticsService) TrendsForCategory(ctx context.Context, category string) ([]core.MonthTotal, error) {
	return query(ctx, s, func(ctx context.Context) ([]core.MonthTotal, error) {
		return s.repo.TrendsForCategory(ctx, category)
	})
}

func (s *AnalyticsService) CategoryTrends(ctx context.Context) ([]core.CategoryMonthTotal, error) {
	return query(ctx, s, s.repo.CategoryTrends)
}

func (s *AnalyticsService) Search(ctx context.Context, f core.SearchFilter) ([]core.AnalyticsRecord, error) {
	return query(ctx, s, func(ctx context.Context) ([]core.AnalyticsRecord, error) {
		return s.repo.Search(ctx, f)
	})
}

func (s *AnalyticsService) Summary(ctx context.Context) (core.Summary, error) {
	return query(ctx, s, s.repo.Summary)
}

// ExportReport writes a PDF spending report covering the analytics
// summary and the status of every budget.
func (s *AnalyticsService) ExportReport(ctx context.Context, w io.Writer) error {
	summary, statuses, err := s.reportData(ctx)
	if err != nil {
		return err
	}
	if err := report.WritePDF(w, summary, statuses); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	slog.DebugContext(ctx, "Report exported", "budgets", len(statuses))
	return nil
}

// reportData derives the summary and budget statuses from one snapshot.
func (s *AnalyticsService) reportData(ctx context.Context) (core.Summary, []core.BudgetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.source.Snapshot()
	if _, err := s.syncFrom(ctx, snap); err != nil {
		return core.Summary{}, nil, err
	}
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return core.Summary{}, nil, err
	}

	st := ledger.FromSnapshot(snap)
	limits := st.Budgets.List()
	statuses := make([]core.BudgetStatus, 0, len(limits))
	for month := range limits {
		statuses = append(statuses, st.Budgets.Check(st.Ledger, month))
	}
	return summary, statuses, nil
}
