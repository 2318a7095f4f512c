package eval

// ContextConfig names a set of reference sources to put in front of the
// model. Each source maps a display label to a file path.
type ContextConfig struct {
	Name    string              `json:"name"`
	Sources []map[string]string `json:"sources"`
}

// SourceData is one loaded reference source.
type SourceData struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Context is a resolved context configuration with its sources loaded.
type Context struct {
	Name    string       `json:"context_name"`
	Sources []SourceData `json:"sources_data"`
}

// Result records one evaluated (context, question, distractor type)
// combination.
type Result struct {
	RunID          string   `json:"run_id"`
	Question       string   `json:"question"`
	URL            string   `json:"url"`
	Choices        []string `json:"choices"`
	CorrectIndex   int      `json:"correct_index"`
	PredictedIndex int      `json:"predicted_index"`
	CorrectFlag    int      `json:"correct_flag"`
	ContextName    string   `json:"context_name"`
	DistractorType string   `json:"distractor_type"`
	Explanation    string   `json:"prediction_explanation"`
}

// TypeAccuracy aggregates results for one distractor type.
type TypeAccuracy struct {
	NumExamples int     `json:"num_examples"`
	Accuracy    float64 `json:"accuracy"`
}

// Report maps context name to distractor type to accuracy.
type Report map[string]map[string]TypeAccuracy
