package ledger

import (
	"fmt"
	"sort"

	"spendlog/internal/core"
)

var (
	ErrCategoryExists   = fmt.Errorf("category %w", core.ErrAlreadyExists)
	ErrCategoryNotFound = fmt.Errorf("category %w", core.ErrNotFound)
	ErrExpenseNotFound  = fmt.Errorf("expense %w", core.ErrNotFound)
)

// Categories maps a category name to the set of expense names it claims.
// Membership is by name only, so one member covers every month.
type Categories struct {
	members map[string]map[string]struct{}
}

func NewCategories() *Categories {
	return &Categories{members: make(map[string]map[string]struct{})}
}

// Create adds an empty category. Existing categories are left untouched.
func (c *Categories) Create(category string) error {
	if err := core.ValidateName(category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	if _, ok := c.members[category]; ok {
		return fmt.Errorf("create %q: %w", category, ErrCategoryExists)
	}
	c.members[category] = make(map[string]struct{})
	return nil
}

// Delete drops a category and its membership; absent categories are a no-op.
func (c *Categories) Delete(category string) {
	delete(c.members, category)
}

// Assign adds name to category. The category must exist and some month
// of l must record an expense with that name.
func (c *Categories) Assign(l *Ledger, category, name string) error {
	set, ok := c.members[category]
	if !ok {
		return fmt.Errorf("assign to %q: %w", category, ErrCategoryNotFound)
	}
	if !l.HasName(name) {
		return fmt.Errorf("assign %q: %w", name, ErrExpenseNotFound)
	}
	set[name] = struct{}{}
	return nil
}

// Replace sets category's members wholesale, creating it when needed.
// Members are not checked against any ledger.
func (c *Categories) Replace(category string, names []string) error {
	if err := core.ValidateName(category); err != nil {
		return fmt.Errorf("replace category: %w", err)
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if core.ValidateName(name) == nil {
			set[name] = struct{}{}
		}
	}
	c.members[category] = set
	return nil
}

func (c *Categories) Exists(category string) bool {
	_, ok := c.members[category]
	return ok
}

// MembersOf returns category's members sorted; empty for unknown categories.
func (c *Categories) MembersOf(category string) []string {
	set := c.members[category]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Names returns all category names sorted ascending.
func (c *Categories) Names() []string {
	out := make([]string, 0, len(c.members))
	for name := range c.members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// List returns every category with its sorted members.
func (c *Categories) List() map[string][]string {
	out := make(map[string][]string, len(c.members))
	for name := range c.members {
		out[name] = c.MembersOf(name)
	}
	return out
}

// ResolveExpenses joins category's members against l, across all months.
// Months with no matching expense are omitted.
func (c *Categories) ResolveExpenses(l *Ledger, category string) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	set, ok := c.members[category]
	if !ok || len(set) == 0 {
		return out
	}
	for m, bucket := range l.entries {
		for name, amount := range bucket {
			if _, member := set[name]; !member {
				continue
			}
			if out[string(m)] == nil {
				out[string(m)] = make(map[string]float64)
			}
			out[string(m)][name] = amount
		}
	}
	return out
}

func (c *Categories) Clear() {
	c.members = make(map[string]map[string]struct{})
}

func (c *Categories) Clone() *Categories {
	out := NewCategories()
	for category, set := range c.members {
		cp := make(map[string]struct{}, len(set))
		for name := range set {
			cp[name] = struct{}{}
		}
		out.members[category] = cp
	}
	return out
}
