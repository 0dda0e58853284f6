package ledger

import (
	"spendlog/internal/core"
)

// State is the owned triple of expenses, categories and budgets.
type State struct {
	Ledger     *Ledger
	Categories *Categories
	Budgets    *Budgets
}

func NewState() *State {
	return &State{
		Ledger:     NewLedger(),
		Categories: NewCategories(),
		Budgets:    NewBudgets(),
	}
}

// FromSnapshot builds a state from persisted data. Entries with invalid
// months, blank names or non-finite amounts are skipped.
func FromSnapshot(snap core.Snapshot) *State {
	s := NewState()
	for month, bucket := range snap.Expenses {
		for name, amount := range bucket {
			_ = s.Ledger.Add(month, name, amount)
		}
		// keep empty month buckets
		if m, err := core.ParseMonth(month); err == nil && s.Ledger.entries[m] == nil {
			s.Ledger.entries[m] = make(map[string]float64)
		}
	}
	for category, names := range snap.Categories {
		_ = s.Categories.Replace(category, names)
	}
	for month, limit := range snap.Budgets {
		_ = s.Budgets.Restore(month, limit)
	}
	return s
}

// Snapshot serializes the state. Category members are sorted.
func (s *State) Snapshot() core.Snapshot {
	return core.Snapshot{
		Expenses:   s.Ledger.List(),
		Categories: s.Categories.List(),
		Budgets:    s.Budgets.List(),
	}
}

// Merge upserts data into the state row by row: expenses and budgets
// overwrite per key, each category's member list replaces the old one.
func (s *State) Merge(data core.Snapshot) error {
	for month, bucket := range data.Expenses {
		for name, amount := range bucket {
			if err := s.Ledger.Add(month, name, amount); err != nil {
				return err
			}
		}
	}
	for category, names := range data.Categories {
		if err := s.Categories.Replace(category, names); err != nil {
			return err
		}
	}
	for month, limit := range data.Budgets {
		if err := s.Budgets.Restore(month, limit); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) Clone() *State {
	return &State{
		Ledger:     s.Ledger.Clone(),
		Categories: s.Categories.Clone(),
		Budgets:    s.Budgets.Clone(),
	}
}
