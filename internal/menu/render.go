package menu

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// render writes a rounded table with right-aligned numeric columns.
func (m *Menu) render(header table.Row, rows []table.Row, numericCols ...int) {
	t := table.NewWriter()
	t.SetOutputMirror(m.out)
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(row)
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault

	configs := make([]table.ColumnConfig, 0, len(numericCols))
	for _, n := range numericCols {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	t.Render()
}

// Cell highlights. fatih/color drops the escapes when stdout is not a terminal.
var (
	overCell  = color.New(color.FgRed, color.Bold).SprintFunc()
	underCell = color.New(color.FgGreen, color.Bold).SprintFunc()
)

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
