package ledger

import (
	"fmt"

	"spendlog/internal/core"
)

var (
	ErrNoExpensesForMonth = fmt.Errorf("no expenses recorded for this month: %w", core.ErrNotFound)
	ErrNoBudget           = fmt.Errorf("no budget recorded: %w", core.ErrNotFound)
)

// Budgets maps month -> spending limit.
type Budgets struct {
	limits map[core.Month]float64
}

func NewBudgets() *Budgets {
	return &Budgets{limits: make(map[core.Month]float64)}
}

// Set stores a limit for month. The month must already have at least
// one expense in l.
func (b *Budgets) Set(l *Ledger, month string, limit float64) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("set budget %q: %w", month, err)
	}
	if err := core.ValidateAmount(limit); err != nil {
		return fmt.Errorf("set budget %s: %w", m, err)
	}
	if !l.HasExpenses(string(m)) {
		return fmt.Errorf("set budget %s: %w", m, ErrNoExpensesForMonth)
	}
	b.limits[m] = limit
	return nil
}

// Adjust overwrites an existing limit.
func (b *Budgets) Adjust(month string, limit float64) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("adjust budget %q: %w", month, err)
	}
	if err := core.ValidateAmount(limit); err != nil {
		return fmt.Errorf("adjust budget %s: %w", m, err)
	}
	if _, ok := b.limits[m]; !ok {
		return fmt.Errorf("adjust budget %s: %w", m, ErrNoBudget)
	}
	b.limits[m] = limit
	return nil
}

// Restore stores a limit without consulting any ledger. Used when
// loading persisted or imported data.
func (b *Budgets) Restore(month string, limit float64) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("restore budget %q: %w", month, err)
	}
	if err := core.ValidateAmount(limit); err != nil {
		return fmt.Errorf("restore budget %s: %w", m, err)
	}
	b.limits[m] = limit
	return nil
}

// Get returns month's limit and whether one is recorded.
func (b *Budgets) Get(month string) (float64, bool) {
	limit, ok := b.limits[core.NormalizeMonth(month)]
	return limit, ok
}

// Check compares month's spending in l against its limit. A missing
// limit counts as 0.
func (b *Budgets) Check(l *Ledger, month string) core.BudgetStatus {
	m := core.NormalizeMonth(month)
	spent := l.MonthlySum(string(m))
	budget := b.limits[m]
	remaining := budget - spent
	return core.BudgetStatus{
		Month:      string(m),
		Spent:      spent,
		Budget:     budget,
		Remaining:  remaining,
		OverBudget: remaining < 0,
	}
}

func (b *Budgets) List() map[string]float64 {
	out := make(map[string]float64, len(b.limits))
	for m, limit := range b.limits {
		out[string(m)] = limit
	}
	return out
}

func (b *Budgets) Clear() {
	b.limits = make(map[core.Month]float64)
}

func (b *Budgets) Clone() *Budgets {
	out := NewBudgets()
	for m, limit := range b.limits {
		out.limits[m] = limit
	}
	return out
}
