package output

import (
	"fmt"
	"strings"

	"github.com/rulebench/rulebench/internal/eval"
)

// MarkdownFormatter renders a report as a markdown table.
type MarkdownFormatter struct{}

// FormatReport renders the accuracy report as Markdown.
func (f *MarkdownFormatter) FormatReport(report eval.Report) (string, error) {
	if len(report) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Evaluation accuracy\n\n")
	sb.WriteString("| Context | Distractor Type | Examples | Accuracy |\n")
	sb.WriteString("|---------|-----------------|----------|----------|\n")

	total := 0
	for _, row := range flattenReport(report) {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
			escapeMarkdownCell(row.Context),
			escapeMarkdownCell(row.Type),
			row.NumExamples,
			formatAccuracy(row),
		))
		total += row.NumExamples
	}

	sb.WriteString(fmt.Sprintf("\n**Total examples**: %d\n", total))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
