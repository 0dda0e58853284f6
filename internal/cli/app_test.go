package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/menu"
	"spendlog/internal/snapshot"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// writeConfig points every data path into dir and returns the config path.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`data:
  file: %s
  csvdir: %s
analytics:
  dbpath: %s
log:
  level: error
%s`, filepath.Join(dir, "data.json"), filepath.Join(dir, "csv"), filepath.Join(dir, "analytics.db"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func seed(t *testing.T, dir string) {
	t.Helper()
	store, err := snapshot.NewFileStore(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	snap := core.NewSnapshot()
	snap.Expenses["january"] = map[string]float64{"rent": 1000, "food": 200}
	snap.Categories["Housing"] = []string{"rent"}
	snap.Budgets["january"] = 1500
	require.NoError(t, store.Save(context.Background(), snap))
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.SetIO(strings.NewReader(input), &out)
	app.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func TestExportThenImport(t *testing.T) {
	src := t.TempDir()
	seed(t, src)
	cfg := writeConfig(t, src, "")

	out, err := execute(t, "", "--config", cfg, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Data exported to")
	csvDir := filepath.Join(src, "csv")
	for _, name := range []string{snapshot.ExpensesFile, snapshot.CategoriesFile, snapshot.BudgetsFile} {
		assert.FileExists(t, filepath.Join(csvDir, name))
	}

	dst := t.TempDir()
	out, err = execute(t, "", "--config", writeConfig(t, dst, ""), "import", "--dir", csvDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 expenses, 1 categories and 1 budgets")

	store, err := snapshot.NewFileStore(filepath.Join(dst, "data.json"))
	require.NoError(t, err)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"rent": 1000, "food": 200}, snap.Expenses["january"])
	assert.Equal(t, []string{"rent"}, snap.Categories["Housing"])
	assert.Equal(t, 1500.0, snap.Budgets["january"])
}

func TestExportWorkbook(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out, err := execute(t, "", "--config", writeConfig(t, dir, ""), "export", "--format", "xlsx")

	require.NoError(t, err)
	assert.Contains(t, out, "Workbook written to")
	assert.FileExists(t, filepath.Join(dir, "csv", menu.WorkbookFile))
}

func TestExportReport(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out, err := execute(t, "", "--config", writeConfig(t, dir, ""), "export", "--format", "pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Report written to")
	data, err := os.ReadFile(filepath.Join(dir, "csv", menu.ReportFile))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportUnknownFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "", "--config", writeConfig(t, dir, ""), "export", "--format", "doc")

	assert.ErrorContains(t, err, `unknown export format "doc"`)
}

func TestSync(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out, err := execute(t, "", "--config", writeConfig(t, dir, ""), "sync")

	require.NoError(t, err)
	assert.Contains(t, out, "Analytics synced: 2 records")
}

func TestMenuCommand(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out, err := execute(t, "1\n5\n0\n0\n", "--config", writeConfig(t, dir, ""), "menu")

	require.NoError(t, err)
	assert.Contains(t, out, "--Expense Tracker--")
	assert.Contains(t, out, "Total across all months: $1200.00")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http:\n  port: 0\n")

	_, err := execute(t, "", "--config", cfg, "sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.Contains(t, err.Error(), "invalid port 0")
}
