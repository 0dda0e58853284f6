package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"spendlog/internal/core"

	_ "modernc.org/sqlite"
)

// AnalyticsRepository is the SQLite-backed projection of the ledger.
// It is never the source of truth: every Rebuild replaces all rows.
type AnalyticsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// busyTimeout is how long a connection waits on another process's write
// lock (serve and worker share one file) before failing with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// dsn takes write locks at BEGIN so a waiting rebuild goes through the busy
// handler instead of failing on a lock upgrade.
func dsn(dbPath string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_txlock=immediate", dbPath, busyTimeout.Milliseconds())
}

func NewAnalyticsRepository(dbPath string) (*AnalyticsRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &AnalyticsRepository{db: db, now: time.Now}, nil
}

func (r *AnalyticsRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *AnalyticsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Rebuild clears the projection and inserts one row per expense, with the
// category that claims its name or Uncategorized. Categories are visited in
// ascending name order, so when several claim one name the last one wins.
// Rows are inserted in calendar month order, then by expense name.
func (r *AnalyticsRepository) Rebuild(ctx context.Context, expenses map[string]map[string]float64, categories map[string][]string) (int, error) {
	categoryOf := resolveCategories(categories)

	type row struct {
		month  core.Month
		name   string
		amount float64
	}
	var rows []row
	for rawMonth, bucket := range expenses {
		m, err := core.ParseMonth(rawMonth)
		if err != nil {
			slog.WarnContext(ctx, "Skipping expenses with invalid month during rebuild", "month", rawMonth)
			continue
		}
		for name, amount := range bucket {
			rows = append(rows, row{month: m, name: name, amount: amount})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].month != rows[j].month {
			return rows[i].month.Index() < rows[j].month.Index()
		}
		return rows[i].name < rows[j].name
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_analytics`); err != nil {
		return 0, fmt.Errorf("clear analytics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'expense_analytics'`); err != nil {
		return 0, fmt.Errorf("reset analytics ids: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expense_analytics (month, month_index, expense_name, amount, category, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	syncedAt := r.now().UTC().Format(time.RFC3339Nano)
	for _, rw := range rows {
		category, ok := categoryOf[rw.name]
		if !ok {
			category = core.Uncategorized
		}
		if _, err := stmt.ExecContext(ctx, string(rw.month), rw.month.Index(), rw.name, rw.amount, category, syncedAt); err != nil {
			return 0, fmt.Errorf("insert analytics record %s/%s: %w", rw.month, rw.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}

	slog.DebugContext(ctx, "Analytics projection rebuilt", "records", len(rows))
	return len(rows), nil
}

func resolveCategories(categories map[string][]string) map[string]string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string)
	for _, category := range names {
		for _, expense := range categories[category] {
			out[expense] = category
		}
	}
	return out
}

// MonthlyTrends totals spending per month in calendar order.
func (r *AnalyticsRepository) MonthlyTrends(ctx context.Context) ([]core.MonthTotal, error) {
	return r.monthTotals(ctx, `
		SELECT month, SUM(amount) AS total
		FROM expense_analytics
		GROUP BY month, month_index
		ORDER BY month_index`)
}

// CategoryBreakdown totals spending per category, largest first.
func (r *AnalyticsRepository) CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount) AS total
		FROM expense_analytics
		GROUP BY category
		ORDER BY total DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query category breakdown: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category breakdown: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Insights reports total and average monthly spending plus the top month
// and category. Ties go to the earlier month and the alphabetically first
// category.
func (r *AnalyticsRepository) Insights(ctx context.Context) (core.Insights, error) {
	in := core.EmptyInsights()

	var months int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0.0), COUNT(DISTINCT month)
		FROM expense_analytics`).Scan(&in.TotalSpending, &months)
	if err != nil {
		return core.Insights{}, fmt.Errorf("query total spending: %w", err)
	}
	if months == 0 {
		months = 1
	}
	in.AvgMonthlySpending = in.TotalSpending / float64(months)

	err = r.db.QueryRowContext(ctx, `
		SELECT month, SUM(amount) AS total
		FROM expense_analytics
		GROUP BY month, month_index
		ORDER BY total DESC, month_index ASC
		LIMIT 1`).Scan(&in.HighestSpendingMonth.Month, &in.HighestSpendingMonth.Amount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.Insights{}, fmt.Errorf("query highest month: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT category, SUM(amount) AS total
		FROM expense_analytics
		GROUP BY category
		ORDER BY total DESC, category ASC
		LIMIT 1`).Scan(&in.TopSpendingCategory.Category, &in.TopSpendingCategory.Amount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.Insights{}, fmt.Errorf("query top category: %w", err)
	}

	return in, nil
}

// TrendsForCategory is MonthlyTrends restricted to one category.
func (r *AnalyticsRepository) TrendsForCategory(ctx context.Context, category string) ([]core.MonthTotal, error) {
	return r.monthTotals(ctx, `
		SELECT month, SUM(amount) AS total
		FROM expense_analytics
		WHERE category = ?
		GROUP BY month, month_index
		ORDER BY month_index`, category)
}

// CategoryTrends totals every (category, month) pair, ordered by category
// then calendar month.
func (r *AnalyticsRepository) CategoryTrends(ctx context.Context) ([]core.CategoryMonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, month, SUM(amount) AS total
		FROM expense_analytics
		GROUP BY category, month, month_index
		ORDER BY category, month_index`)
	if err != nil {
		return nil, fmt.Errorf("query category trends: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryMonthTotal{}
	for rows.Next() {
		var ct core.CategoryMonthTotal
		if err := rows.Scan(&ct.Category, &ct.Month, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category trends: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Search returns records matching every set filter, newest id first.
// Query is a case-sensitive substring of the expense name; amount bounds
// are inclusive.
func (r *AnalyticsRepository) Search(ctx context.Context, f core.SearchFilter) ([]core.AnalyticsRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		where = append(where, "instr(expense_name, ?) > 0")
		args = append(args, f.Query)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Month != "" {
		where = append(where, "month = ?")
		args = append(args, string(core.NormalizeMonth(f.Month)))
	}
	if f.MinAmount != nil {
		where = append(where, "amount >= ?")
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		where = append(where, "amount <= ?")
		args = append(args, *f.MaxAmount)
	}

	query := `SELECT id, month, expense_name, amount, category, synced_at FROM expense_analytics`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search analytics: %w", err)
	}
	defer rows.Close()

	out := []core.AnalyticsRecord{}
	for rows.Next() {
		var (
			rec      core.AnalyticsRecord
			syncedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Month, &rec.ExpenseName, &rec.Amount, &rec.Category, &syncedAt); err != nil {
			return nil, fmt.Errorf("scan analytics record: %w", err)
		}
		if rec.SyncedAt, err = time.Parse(time.RFC3339Nano, syncedAt); err != nil {
			return nil, fmt.Errorf("parse synced_at %q: %w", syncedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary bundles trends, breakdown and insights.
func (r *AnalyticsRepository) Summary(ctx context.Context) (core.Summary, error) {
	trends, err := r.MonthlyTrends(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	breakdown, err := r.CategoryBreakdown(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	insights, err := r.Insights(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summary{MonthlyTrends: trends, CategoryBreakdown: breakdown, Insights: insights}, nil
}

// Count returns the number of projected records.
func (r *AnalyticsRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense_analytics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analytics records: %w", err)
	}
	return n, nil
}

func (r *AnalyticsRepository) monthTotals(ctx context.Context, query string, args ...any) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	out := []core.MonthTotal{}
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, fmt.Errorf("scan monthly totals: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}
