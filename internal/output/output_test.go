package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rulebench/rulebench/internal/dataset"
	"github.com/rulebench/rulebench/internal/eval"
)

func sampleReport() eval.Report {
	return eval.Report{
		"no_context": {
			dataset.DistractorFromScratch:  {NumExamples: 8, Accuracy: 0.75},
			dataset.DistractorFromRulebook: {NumExamples: 8, Accuracy: 0.5},
			dataset.DistractorFromForum:    {NumExamples: 0, Accuracy: 0},
		},
		"with_rulebook": {
			dataset.DistractorFromScratch: {NumExamples: 4, Accuracy: 1},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatReport(sampleReport())
	require.NoError(t, err)

	var decoded eval.Report
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, sampleReport(), decoded)
}

func TestTableFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatReport(sampleReport())
	require.NoError(t, err)

	require.Contains(t, rendered, "CONTEXT")
	require.Contains(t, rendered, "no_context")
	require.Contains(t, rendered, "with_rulebook")
	require.Contains(t, rendered, "0.750")
	require.Contains(t, rendered, "20 total")

	// Zero-example rows render a dash instead of a misleading 0.000.
	require.Contains(t, rendered, "-")
}

func TestMarkdownFormatter(t *testing.T) {
	rendered, err := NewFormatter(FormatMarkdown).FormatReport(sampleReport())
	require.NoError(t, err)

	require.Contains(t, rendered, "| Context | Distractor Type | Examples | Accuracy |")
	require.Contains(t, rendered, "| no_context | from_rulebook | 8 | 0.500 |")
	require.Contains(t, rendered, "**Total examples**: 20")

	// Contexts sorted alphabetically.
	require.Less(t,
		strings.Index(rendered, "no_context"),
		strings.Index(rendered, "with_rulebook"))
}

func TestFormattersWithEmptyReport(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatMarkdown} {
		rendered, err := NewFormatter(format).FormatReport(eval.Report{})
		require.NoError(t, err)
		require.Empty(t, rendered)
	}
}
