// Package ledger holds the primary in-memory model: expenses by month,
// category membership and monthly budgets.
package ledger

import (
	"fmt"
	"sort"

	"spendlog/internal/core"
)

// Ledger maps month -> expense name -> amount.
// Month buckets are kept after their last expense is deleted.
type Ledger struct {
	entries map[core.Month]map[string]float64
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[core.Month]map[string]float64)}
}

// Add records amount under (month, name), overwriting any previous amount.
func (l *Ledger) Add(month, name string, amount float64) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("add expense %q: %w", month, err)
	}
	if err := core.ValidateName(name); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	if err := core.ValidateAmount(amount); err != nil {
		return fmt.Errorf("add expense %q: %w", name, err)
	}
	bucket, ok := l.entries[m]
	if !ok {
		bucket = make(map[string]float64)
		l.entries[m] = bucket
	}
	bucket[name] = amount
	return nil
}

// Update is an upsert identical to Add; the entry need not exist.
func (l *Ledger) Update(month, name string, amount float64) error {
	return l.Add(month, name, amount)
}

// Delete removes (month, name) if present. Absent entries are a no-op.
func (l *Ledger) Delete(month, name string) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("delete expense %q: %w", month, err)
	}
	if bucket, ok := l.entries[m]; ok {
		delete(bucket, name)
	}
	return nil
}

// List returns a copy of every month bucket.
func (l *Ledger) List() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(l.entries))
	for m, bucket := range l.entries {
		out[string(m)] = copyBucket(bucket)
	}
	return out
}

// ListMonth returns a copy of one month's expenses; empty for unknown months.
func (l *Ledger) ListMonth(month string) map[string]float64 {
	return copyBucket(l.entries[core.NormalizeMonth(month)])
}

// MonthlySum totals one month; 0 for unknown months.
func (l *Ledger) MonthlySum(month string) float64 {
	var total float64
	for _, amount := range l.entries[core.NormalizeMonth(month)] {
		total += amount
	}
	return total
}

// Total sums every expense across all months.
func (l *Ledger) Total() float64 {
	var total float64
	for _, bucket := range l.entries {
		for _, amount := range bucket {
			total += amount
		}
	}
	return total
}

// HasName reports whether any month records an expense called name.
func (l *Ledger) HasName(name string) bool {
	for _, bucket := range l.entries {
		if _, ok := bucket[name]; ok {
			return true
		}
	}
	return false
}

// HasExpenses reports whether month has at least one recorded expense.
func (l *Ledger) HasExpenses(month string) bool {
	return len(l.entries[core.NormalizeMonth(month)]) > 0
}

// Months returns the months present in the ledger in calendar order.
func (l *Ledger) Months() []core.Month {
	out := make([]core.Month, 0, len(l.entries))
	for m := range l.entries {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// Names returns the expense names of month sorted ascending.
func (l *Ledger) Names(month core.Month) []string {
	bucket := l.entries[month]
	names := make([]string, 0, len(bucket))
	for name := range bucket {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len counts expenses across all months.
func (l *Ledger) Len() int {
	n := 0
	for _, bucket := range l.entries {
		n += len(bucket)
	}
	return n
}

func (l *Ledger) Clear() {
	l.entries = make(map[core.Month]map[string]float64)
}

func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for m, bucket := range l.entries {
		c.entries[m] = copyBucket(bucket)
	}
	return c
}

func copyBucket(bucket map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(bucket))
	for name, amount := range bucket {
		out[name] = amount
	}
	return out
}
