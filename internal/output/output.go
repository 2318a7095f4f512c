// Package output renders evaluation reports for human and machine
// consumption.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rulebench/rulebench/internal/eval"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders an accuracy report.
type Formatter interface {
	FormatReport(report eval.Report) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// reportRow is one flattened (context, distractor type) pair.
type reportRow struct {
	Context     string
	Type        string
	NumExamples int
	Accuracy    float64
}

// flattenReport orders the report deterministically by context name,
// then distractor type.
func flattenReport(report eval.Report) []reportRow {
	contexts := make([]string, 0, len(report))
	for name := range report {
		contexts = append(contexts, name)
	}
	sort.Strings(contexts)

	var rows []reportRow
	for _, ctx := range contexts {
		types := make([]string, 0, len(report[ctx]))
		for t := range report[ctx] {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			acc := report[ctx][t]
			rows = append(rows, reportRow{
				Context:     ctx,
				Type:        t,
				NumExamples: acc.NumExamples,
				Accuracy:    acc.Accuracy,
			})
		}
	}
	return rows
}

func formatAccuracy(row reportRow) string {
	if row.NumExamples == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", row.Accuracy)
}
