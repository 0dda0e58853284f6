package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
	"spendlog/internal/snapshot"
)

// SnapshotStore persists the full tracker state.
type SnapshotStore interface {
	Load(ctx context.Context) (core.Snapshot, error)
	Save(ctx context.Context, snap core.Snapshot) error
}

// ChangePublisher announces committed mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change core.Change) error
}

// TrackerService owns the expense, category and budget state. Every
// mutation is applied to a copy, saved, and only then committed, so a
// failed save leaves the in-memory state untouched.
type TrackerService struct {
	mu        sync.Mutex
	state     *ledger.State
	store     SnapshotStore
	publisher ChangePublisher
}

// NewTrackerService loads the persisted snapshot into memory. publisher may be nil.
func NewTrackerService(ctx context.Context, store SnapshotStore, publisher ChangePublisher) (*TrackerService, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	state := ledger.FromSnapshot(snap)
	slog.InfoContext(ctx, "Tracker state loaded",
		"expenses", state.Ledger.Len(),
		"categories", len(state.Categories.Names()),
		"budgets", len(state.Budgets.List()))

	return &TrackerService{state: state, store: store, publisher: publisher}, nil
}

// mutate runs apply against a clone of the current state and commits it
// once the snapshot has been saved.
func (s *TrackerService) mutate(ctx context.Context, change core.Change, apply func(*ledger.State) error) error {
	s.mu.Lock()
	next := s.state.Clone()
	if err := apply(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Save(ctx, next.Snapshot()); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", change.Operation, err)
	}
	s.state = next
	s.mu.Unlock()

	s.publish(ctx, change)
	return nil
}

func (s *TrackerService) publish(ctx context.Context, change core.Change) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No change publisher configured, skipping notification", "operation", change.Operation)
		return
	}
	if err := s.publisher.PublishChange(ctx, change); err != nil {
		// The mutation is already committed locally
		slog.WarnContext(ctx, "Failed to publish change", "operation", change.Operation, "error", err)
	}
}

func (s *TrackerService) read(fn func(*ledger.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Expenses

func (s *TrackerService) AddExpense(ctx context.Context, month, name string, amount float64) error {
	change := core.Change{Operation: core.OpExpenseAdded, Month: string(core.NormalizeMonth(month)), Name: name}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Ledger.Add(month, name, amount)
	})
}

func (s *TrackerService) UpdateExpense(ctx context.Context, month, name string, amount float64) error {
	change := core.Change{Operation: core.OpExpenseUpdated, Month: string(core.NormalizeMonth(month)), Name: name}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Ledger.Update(month, name, amount)
	})
}

func (s *TrackerService) DeleteExpense(ctx context.Context, month, name string) error {
	change := core.Change{Operation: core.OpExpenseDeleted, Month: string(core.NormalizeMonth(month)), Name: name}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Ledger.Delete(month, name)
	})
}

func (s *TrackerService) ListExpenses() map[string]map[string]float64 {
	var out map[string]map[string]float64
	s.read(func(st *ledger.State) { out = st.Ledger.List() })
	return out
}

func (s *TrackerService) ListMonth(month string) map[string]float64 {
	var out map[string]float64
	s.read(func(st *ledger.State) { out = st.Ledger.ListMonth(month) })
	return out
}

func (s *TrackerService) MonthlySum(month string) float64 {
	var out float64
	s.read(func(st *ledger.State) { out = st.Ledger.MonthlySum(month) })
	return out
}

func (s *TrackerService) TotalSpent() float64 {
	var out float64
	s.read(func(st *ledger.State) { out = st.Ledger.Total() })
	return out
}

// Categories

func (s *TrackerService) CreateCategory(ctx context.Context, category string) error {
	change := core.Change{Operation: core.OpCategoryCreated, Category: category}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Categories.Create(category)
	})
}

func (s *TrackerService) DeleteCategory(ctx context.Context, category string) error {
	change := core.Change{Operation: core.OpCategoryDeleted, Category: category}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		st.Categories.Delete(category)
		return nil
	})
}

func (s *TrackerService) AssignCategory(ctx context.Context, category, name string) error {
	change := core.Change{Operation: core.OpCategoryAssigned, Category: category, Name: name}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Categories.Assign(st.Ledger, category, name)
	})
}

func (s *TrackerService) CategoryMembers(category string) []string {
	var out []string
	s.read(func(st *ledger.State) { out = st.Categories.MembersOf(category) })
	return out
}

func (s *TrackerService) CategoryExpenses(category string) map[string]map[string]float64 {
	var out map[string]map[string]float64
	s.read(func(st *ledger.State) { out = st.Categories.ResolveExpenses(st.Ledger, category) })
	return out
}

func (s *TrackerService) ListCategories() map[string][]string {
	var out map[string][]string
	s.read(func(st *ledger.State) { out = st.Categories.List() })
	return out
}

// Budgets

func (s *TrackerService) SetBudget(ctx context.Context, month string, limit float64) error {
	change := core.Change{Operation: core.OpBudgetSet, Month: string(core.NormalizeMonth(month))}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Budgets.Set(st.Ledger, month, limit)
	})
}

func (s *TrackerService) AdjustBudget(ctx context.Context, month string, limit float64) error {
	change := core.Change{Operation: core.OpBudgetAdjusted, Month: string(core.NormalizeMonth(month))}
	return s.mutate(ctx, change, func(st *ledger.State) error {
		return st.Budgets.Adjust(month, limit)
	})
}

func (s *TrackerService) GetBudget(month string) (float64, bool) {
	var (
		limit float64
		ok    bool
	)
	s.read(func(st *ledger.State) { limit, ok = st.Budgets.Get(month) })
	return limit, ok
}

func (s *TrackerService) CheckBudget(month string) core.BudgetStatus {
	var out core.BudgetStatus
	s.read(func(st *ledger.State) { out = st.Budgets.Check(st.Ledger, month) })
	return out
}

func (s *TrackerService) ListBudgets() map[string]float64 {
	var out map[string]float64
	s.read(func(st *ledger.State) { out = st.Budgets.List() })
	return out
}

// Bulk data

func (s *TrackerService) ClearExpenses(ctx context.Context) error {
	return s.mutate(ctx, core.Change{Operation: core.OpExpensesCleared}, func(st *ledger.State) error {
		st.Ledger.Clear()
		return nil
	})
}

func (s *TrackerService) ClearCategories(ctx context.Context) error {
	return s.mutate(ctx, core.Change{Operation: core.OpCategoriesCleared}, func(st *ledger.State) error {
		st.Categories.Clear()
		return nil
	})
}

func (s *TrackerService) ClearBudgets(ctx context.Context) error {
	return s.mutate(ctx, core.Change{Operation: core.OpBudgetsCleared}, func(st *ledger.State) error {
		st.Budgets.Clear()
		return nil
	})
}

func (s *TrackerService) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, core.Change{Operation: core.OpAllCleared}, func(st *ledger.State) error {
		st.Ledger.Clear()
		st.Categories.Clear()
		st.Budgets.Clear()
		return nil
	})
}

// ImportCSV merges the CSV exchange files found in dir into the current
// state and saves the result.
func (s *TrackerService) ImportCSV(ctx context.Context, dir string) (snapshot.ImportReport, error) {
	data, report, err := snapshot.ReadCSV(ctx, dir)
	if err != nil {
		return report, fmt.Errorf("import csv: %w", err)
	}

	err = s.mutate(ctx, core.Change{Operation: core.OpImported}, func(st *ledger.State) error {
		return st.Merge(data)
	})
	if err != nil {
		return report, err
	}

	slog.InfoContext(ctx, "CSV import completed",
		"dir", dir,
		"expenses", report.Expenses,
		"categories", report.Categories,
		"budgets", report.Budgets,
		"skipped", len(report.Skipped))
	return report, nil
}

// ExportCSV writes the current state as CSV exchange files into dir.
func (s *TrackerService) ExportCSV(ctx context.Context, dir string) error {
	if err := snapshot.WriteCSV(ctx, dir, s.Snapshot()); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

// ExportWorkbook writes the current state as an XLSX workbook to w.
func (s *TrackerService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	if err := snapshot.WriteWorkbook(w, s.Snapshot()); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	slog.DebugContext(ctx, "Workbook exported")
	return nil
}

// Snapshot returns a copy of the current state.
func (s *TrackerService) Snapshot() core.Snapshot {
	var out core.Snapshot
	s.read(func(st *ledger.State) { out = st.Snapshot() })
	return out
}
