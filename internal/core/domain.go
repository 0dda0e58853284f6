package core

import (
	"errors"
	"strings"
)

// Month is a canonical lowercase English month name.
type Month string

const (
	January   Month = "january"
	February  Month = "february"
	March     Month = "march"
	April     Month = "april"
	May       Month = "may"
	June      Month = "june"
	July      Month = "july"
	August    Month = "august"
	September Month = "september"
	October   Month = "october"
	November  Month = "november"
	December  Month = "december"
)

var months = [...]Month{
	January, February, March, April, May, June,
	July, August, September, October, November, December,
}

var (
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidName   = errors.New("invalid name")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failure")
)

// Months returns the twelve months in calendar order.
func Months() []Month {
	out := make([]Month, len(months))
	copy(out, months[:])
	return out
}

// NormalizeMonth trims and lowercases s without validating it.
// Read paths use it so that unknown months simply match nothing.
func NormalizeMonth(s string) Month {
	return Month(strings.ToLower(strings.TrimSpace(s)))
}

// ParseMonth normalizes s and checks it against the month enumeration.
func ParseMonth(s string) (Month, error) {
	m := NormalizeMonth(s)
	if m.Index() == 0 {
		return "", ErrInvalidMonth
	}
	return m, nil
}

// Index returns the 1-based calendar position, or 0 for an unknown month.
func (m Month) Index() int {
	for i, known := range months {
		if m == known {
			return i + 1
		}
	}
	return 0
}

func (m Month) Valid() bool {
	return m.Index() > 0
}

func (m Month) String() string {
	return string(m)
}

// ValidateName rejects expense and category names that are blank.
// Names are otherwise kept exactly as given.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

// Change describes a committed mutation, used for change notifications.
type Change struct {
	Operation string
	Month     string
	Name      string
	Category  string
}

const (
	OpExpenseAdded      = "expense.added"
	OpExpenseUpdated    = "expense.updated"
	OpExpenseDeleted    = "expense.deleted"
	OpCategoryCreated   = "category.created"
	OpCategoryDeleted   = "category.deleted"
	OpCategoryAssigned  = "category.assigned"
	OpBudgetSet         = "budget.set"
	OpBudgetAdjusted    = "budget.adjusted"
	OpExpensesCleared   = "expenses.cleared"
	OpCategoriesCleared = "categories.cleared"
	OpBudgetsCleared    = "budgets.cleared"
	OpAllCleared        = "all.cleared"
	OpImported          = "data.imported"
)
