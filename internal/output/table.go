package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rulebench/rulebench/internal/eval"
)

// TableFormatter renders a report as an ASCII table.
type TableFormatter struct{}

// FormatReport renders the accuracy report as a table.
func (f *TableFormatter) FormatReport(report eval.Report) (string, error) {
	if len(report) == 0 {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Context", "Distractor Type", "Examples", "Accuracy"})

	total := 0
	for _, row := range flattenReport(report) {
		t.AppendRow(table.Row{row.Context, row.Type, row.NumExamples, formatAccuracy(row)})
		total += row.NumExamples
	}

	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d total", total), ""})
	return t.Render(), nil
}
