package output

import (
	"encoding/json"

	"github.com/rulebench/rulebench/internal/eval"
)

// JSONFormatter renders a report as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders the accuracy report as JSON.
func (f *JSONFormatter) FormatReport(report eval.Report) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
