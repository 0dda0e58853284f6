package core

import "time"

const (
	// Uncategorized labels analytics records no category claims.
	Uncategorized = "Uncategorized"
	// NoneLabel is reported by insights when there is no data.
	NoneLabel = "None"
)

// Snapshot is the full persisted state of the tracker.
type Snapshot struct {
	Expenses   map[string]map[string]float64 `json:"expenses"`
	Categories map[string][]string           `json:"categories"`
	Budgets    map[string]float64            `json:"budgets"`
}

// NewSnapshot returns a snapshot with empty, non-nil maps.
func NewSnapshot() Snapshot {
	return Snapshot{
		Expenses:   map[string]map[string]float64{},
		Categories: map[string][]string{},
		Budgets:    map[string]float64{},
	}
}

// BudgetStatus compares a month's spending against its limit.
type BudgetStatus struct {
	Month      string  `json:"month"`
	Spent      float64 `json:"total_spent"`
	Budget     float64 `json:"budget"`
	Remaining  float64 `json:"remaining"`
	OverBudget bool    `json:"over_budget"`
}

type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type CategoryMonthTotal struct {
	Category string  `json:"category"`
	Month    string  `json:"month"`
	Total    float64 `json:"total"`
}

type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Insights holds the headline spending figures.
type Insights struct {
	TotalSpending        float64        `json:"total_spending"`
	AvgMonthlySpending   float64        `json:"avg_monthly_spending"`
	HighestSpendingMonth MonthAmount    `json:"highest_spending_month"`
	TopSpendingCategory  CategoryAmount `json:"top_spending_category"`
}

// EmptyInsights is what insights report when no records exist.
func EmptyInsights() Insights {
	return Insights{
		HighestSpendingMonth: MonthAmount{Month: NoneLabel},
		TopSpendingCategory:  CategoryAmount{Category: NoneLabel},
	}
}

// AnalyticsRecord is one derived row of the analytics projection.
type AnalyticsRecord struct {
	ID          int64     `json:"id"`
	Month       string    `json:"month"`
	ExpenseName string    `json:"expense_name"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	SyncedAt    time.Time `json:"synced_at"`
}

// SearchFilter narrows analytics records. Zero values mean "no filter".
type SearchFilter struct {
	Query     string
	Category  string
	Month     string
	MinAmount *float64
	MaxAmount *float64
}

// Summary bundles the three main analytics views.
type Summary struct {
	MonthlyTrends     []MonthTotal    `json:"monthly_trends"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
	Insights          Insights        `json:"insights"`
}
