package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// BuildReport aggregates per-result correctness into accuracy by
// context and distractor type. Every context carries an entry for each
// required type even when no examples reached it.
func BuildReport(results []Result) Report {
	grouped := map[string]map[string][]Result{}
	for _, result := range results {
		byType, ok := grouped[result.ContextName]
		if !ok {
			byType = map[string][]Result{}
			for _, required := range requiredDistractorTypes {
				byType[required] = nil
			}
			grouped[result.ContextName] = byType
		}
		byType[result.DistractorType] = append(byType[result.DistractorType], result)
	}

	report := Report{}
	for contextName, byType := range grouped {
		report[contextName] = map[string]TypeAccuracy{}
		for distractorType, items := range byType {
			if len(items) == 0 {
				report[contextName][distractorType] = TypeAccuracy{}
				continue
			}
			correct := 0
			for _, item := range items {
				correct += item.CorrectFlag
			}
			report[contextName][distractorType] = TypeAccuracy{
				NumExamples: len(items),
				Accuracy:    float64(correct) / float64(len(items)),
			}
		}
	}
	return report
}

// WriteResults saves detailed results grouped by context and type, the
// shape downstream notebooks expect.
func WriteResults(path string, results []Result) error {
	grouped := map[string]map[string][]Result{}
	for _, result := range results {
		if _, ok := grouped[result.ContextName]; !ok {
			grouped[result.ContextName] = map[string][]Result{}
		}
		grouped[result.ContextName][result.DistractorType] = append(
			grouped[result.ContextName][result.DistractorType], result)
	}

	data, err := json.MarshalIndent(grouped, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- evaluation artifacts are world-readable
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// WriteReport saves the accuracy report as indented JSON.
func WriteReport(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- evaluation artifacts are world-readable
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
