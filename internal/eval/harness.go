// Package eval measures model accuracy on the multiple-choice dataset
// under different reference contexts.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/dataset"
	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/prompt"
)

// requiredDistractorTypes must all be present on a question for it to
// be evaluated, so each strategy sees the same question set.
var requiredDistractorTypes = []string{
	dataset.DistractorFromScratch,
	dataset.DistractorFromRulebook,
	dataset.DistractorFromForum,
}

// Harness runs all (context, question, distractor type) combinations
// through a model and scores the predictions.
type Harness struct {
	Dispatcher *infer.Dispatcher
	Invoker    infer.Invoker
	Prompts    prompt.Registry
	Backend    string
	Seed       int64
	Logger     *zap.Logger
}

// task carries the data needed to score one dispatched prompt.
type task struct {
	question       string
	url            string
	choices        []string
	correctIndex   int
	contextName    string
	distractorType string
}

// Run evaluates the question set under every context.
func (h *Harness) Run(ctx context.Context, contexts []Context, questions []dataset.MCQExample) ([]Result, error) {
	if h.Dispatcher == nil || h.Invoker == nil {
		return nil, fmt.Errorf("harness needs a dispatcher and invoker")
	}
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mcqPrompt, err := h.Prompts.Get(prompt.SlugEvalMCQ)
	if err != nil {
		return nil, err
	}

	// A fixed seed keeps choice order stable across runs, so accuracy
	// differences come from the model, not the shuffle.
	rng := rand.New(rand.NewSource(h.Seed)) // #nosec G404 -- deterministic shuffle, not security-sensitive

	var (
		prompts []string
		tasks   []task
	)
	for _, evalCtx := range contexts {
		references := evalCtx.References()
		for _, question := range questions {
			if !hasAllDistractorTypes(question) {
				continue
			}
			for _, distractorType := range requiredDistractorTypes {
				choices := append([]string{question.CorrectAnswer}, question.Distractors[distractorType]...)
				rng.Shuffle(len(choices), func(i, j int) {
					choices[i], choices[j] = choices[j], choices[i]
				})
				correctIndex := indexOf(choices, question.CorrectAnswer)

				rendered, err := mcqPrompt.Render(map[string]string{
					"references": references,
					"question":   question.MultipleChoiceQuestion,
					"options":    formatOptions(choices),
				})
				if err != nil {
					return nil, err
				}

				prompts = append(prompts, rendered)
				tasks = append(tasks, task{
					question:       question.MultipleChoiceQuestion,
					url:            question.URL,
					choices:        choices,
					correctIndex:   correctIndex,
					contextName:    evalCtx.Name,
					distractorType: distractorType,
				})
			}
		}
	}

	logger.Info("evaluation dispatch",
		zap.Int("contexts", len(contexts)),
		zap.Int("questions", len(questions)),
		zap.Int("tasks", len(tasks)))

	raw, err := h.Dispatcher.Run(ctx, h.Invoker, h.Backend, prompts, true)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	results := make([]Result, len(tasks))
	for i, t := range tasks {
		predicted, explanation := parsePrediction(raw[i])
		flag := 0
		if predicted == t.correctIndex {
			flag = 1
		}
		results[i] = Result{
			RunID:          runID,
			Question:       t.question,
			URL:            t.url,
			Choices:        t.choices,
			CorrectIndex:   t.correctIndex,
			PredictedIndex: predicted,
			CorrectFlag:    flag,
			ContextName:    t.contextName,
			DistractorType: t.distractorType,
			Explanation:    explanation,
		}
	}
	return results, nil
}

func hasAllDistractorTypes(question dataset.MCQExample) bool {
	for _, required := range requiredDistractorTypes {
		if _, ok := question.Distractors[required]; !ok {
			return false
		}
	}
	return true
}

func indexOf(items []string, target string) int {
	for i, item := range items {
		if item == target {
			return i
		}
	}
	return -1
}

// formatOptions labels choices a) through z).
func formatOptions(choices []string) string {
	lines := make([]string, 0, len(choices))
	for i, choice := range choices {
		lines = append(lines, fmt.Sprintf("  %c) %s", 'a'+i, choice))
	}
	return strings.Join(lines, "\n")
}

// parsePrediction decodes one completion. The failure sentinel and
// malformed JSON both score as index 0 with an explanatory note, so a
// single bad completion never aborts the run.
func parsePrediction(raw string) (int, string) {
	if raw == infer.NoResponse {
		return 0, "Model returned no response."
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(dataset.ExtractJSON(raw)), &fields); err != nil {
		return 0, fmt.Sprintf("Model did not return valid JSON. Raw response: %s", raw)
	}

	predicted := 0
	switch v := fields["predicted_index"].(type) {
	case float64:
		predicted = int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			predicted = n
		}
	}

	explanation, _ := fields["explanation"].(string)
	if explanation == "" {
		explanation = "No explanation provided."
	}
	return predicted, explanation
}
