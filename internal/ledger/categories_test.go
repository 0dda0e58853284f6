package ledger

import (
	"testing"

	"spendlog/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger()
	require.NoError(t, l.Add("january", "rent", 1000))
	require.NoError(t, l.Add("february", "rent", 1000))
	require.NoError(t, l.Add("february", "food", 200))
	return l
}

func TestCategories_CreateRejectsDuplicate(t *testing.T) {
	c := NewCategories()
	require.NoError(t, c.Create("Housing"))
	require.NoError(t, c.Assign(newTestLedger(t), "Housing", "rent"))

	err := c.Create("Housing")

	assert.ErrorIs(t, err, core.ErrAlreadyExists)
	assert.Equal(t, []string{"rent"}, c.MembersOf("Housing"), "duplicate create must not reset members")
}

func TestCategories_CreateRejectsBlankName(t *testing.T) {
	c := NewCategories()
	assert.ErrorIs(t, c.Create(" "), core.ErrInvalidName)
}

func TestCategories_DeleteAbsentIsNoop(t *testing.T) {
	c := NewCategories()
	c.Delete("nothing")
	require.NoError(t, c.Create("Food"))
	c.Delete("Food")

	assert.False(t, c.Exists("Food"))
}

func TestCategories_Assign(t *testing.T) {
	l := newTestLedger(t)

	tests := []struct {
		name     string
		category string
		expense  string
		wantErr  error
	}{
		{name: "unknown category", category: "Travel", expense: "rent", wantErr: ErrCategoryNotFound},
		{name: "unknown expense", category: "Housing", expense: "flights", wantErr: ErrExpenseNotFound},
		{name: "expense from any month", category: "Housing", expense: "rent"},
		{name: "idempotent", category: "Housing", expense: "rent"},
	}

	c := NewCategories()
	require.NoError(t, c.Create("Housing"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Assign(l, tt.category, tt.expense)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, core.ErrNotFound)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, []string{"rent"}, c.MembersOf("Housing"))
}

func TestCategories_MembersOfUnknownIsEmpty(t *testing.T) {
	c := NewCategories()
	got := c.MembersOf("nope")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCategories_ResolveExpenses(t *testing.T) {
	l := newTestLedger(t)
	c := NewCategories()
	require.NoError(t, c.Create("Housing"))
	require.NoError(t, c.Create("Empty"))
	require.NoError(t, c.Assign(l, "Housing", "rent"))

	got := c.ResolveExpenses(l, "Housing")

	assert.Equal(t, map[string]map[string]float64{
		"january":  {"rent": 1000},
		"february": {"rent": 1000},
	}, got)
	assert.Empty(t, c.ResolveExpenses(l, "Empty"))
	assert.Empty(t, c.ResolveExpenses(l, "Unknown"))
}

func TestCategories_ResolveSkipsMembersNoLongerInLedger(t *testing.T) {
	l := newTestLedger(t)
	c := NewCategories()
	require.NoError(t, c.Create("Food"))
	require.NoError(t, c.Assign(l, "Food", "food"))
	require.NoError(t, l.Delete("february", "food"))

	assert.Equal(t, []string{"food"}, c.MembersOf("Food"))
	assert.Empty(t, c.ResolveExpenses(l, "Food"))
}

func TestCategories_ReplaceDropsBlankMembers(t *testing.T) {
	c := NewCategories()
	require.NoError(t, c.Replace("Food", []string{"lunch", "", "dinner", "lunch"}))

	assert.Equal(t, []string{"dinner", "lunch"}, c.MembersOf("Food"))
}

func TestCategories_CloneIsIndependent(t *testing.T) {
	l := newTestLedger(t)
	c := NewCategories()
	require.NoError(t, c.Create("Housing"))

	cp := c.Clone()
	require.NoError(t, cp.Assign(l, "Housing", "rent"))
	cp.Delete("Housing")

	assert.True(t, c.Exists("Housing"))
	assert.Empty(t, c.MembersOf("Housing"))
}
