package ledger

import (
	"testing"

	"spendlog/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgets_SetRequiresExpensesInMonth(t *testing.T) {
	l := NewLedger()
	b := NewBudgets()

	err := b.Set(l, "march", 100)
	assert.ErrorIs(t, err, ErrNoExpensesForMonth)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Contains(t, err.Error(), "no expenses recorded for this month")

	require.NoError(t, l.Add("march", "food", 10))
	require.NoError(t, b.Set(l, "MARCH", 100))

	limit, ok := b.Get("march")
	assert.True(t, ok)
	assert.Equal(t, 100.0, limit)
}

func TestBudgets_SetRejectsEmptiedMonth(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add("march", "food", 10))
	require.NoError(t, l.Delete("march", "food"))

	assert.ErrorIs(t, NewBudgets().Set(l, "march", 100), ErrNoExpensesForMonth)
}

func TestBudgets_SetRejectsInvalidMonth(t *testing.T) {
	assert.ErrorIs(t, NewBudgets().Set(NewLedger(), "marchember", 1), core.ErrInvalidMonth)
}

func TestBudgets_AdjustRequiresExistingBudget(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add("april", "rent", 500))
	b := NewBudgets()

	err := b.Adjust("april", 700)
	assert.ErrorIs(t, err, ErrNoBudget)
	assert.Contains(t, err.Error(), "no budget recorded")

	require.NoError(t, b.Set(l, "april", 600))
	require.NoError(t, b.Adjust("April", 700))

	limit, _ := b.Get("april")
	assert.Equal(t, 700.0, limit)
}

func TestBudgets_Check(t *testing.T) {
	tests := []struct {
		name       string
		spent      float64
		limit      *float64
		remaining  float64
		overBudget bool
	}{
		{name: "over budget", spent: 120, limit: ptr(100), remaining: -20, overBudget: true},
		{name: "under budget", spent: 80, limit: ptr(100), remaining: 20, overBudget: false},
		{name: "exactly at budget", spent: 100, limit: ptr(100), remaining: 0, overBudget: false},
		{name: "no budget defaults to zero", spent: 30, remaining: -30, overBudget: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			require.NoError(t, l.Add("may", "stuff", tt.spent))
			b := NewBudgets()
			if tt.limit != nil {
				require.NoError(t, b.Set(l, "may", *tt.limit))
			}

			status := b.Check(l, "May")

			assert.Equal(t, "may", status.Month)
			assert.Equal(t, tt.spent, status.Spent)
			assert.Equal(t, tt.remaining, status.Remaining)
			assert.Equal(t, tt.overBudget, status.OverBudget)
		})
	}
}

func TestBudgets_CheckUnknownMonth(t *testing.T) {
	status := NewBudgets().Check(NewLedger(), "june")

	assert.Equal(t, core.BudgetStatus{Month: "june"}, status)
}

func TestBudgets_GetMissing(t *testing.T) {
	_, ok := NewBudgets().Get("january")
	assert.False(t, ok)
}

func ptr(v float64) *float64 { return &v }
