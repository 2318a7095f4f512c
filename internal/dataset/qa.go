// Package dataset turns scraped forum threads into a QA dataset and
// synthesizes multiple-choice distractors for it.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/prompt"
	"github.com/rulebench/rulebench/internal/scrape"
)

// QABuilder distills forum threads into cleaned QA pairs.
type QABuilder struct {
	Dispatcher  *infer.Dispatcher
	Invoker     infer.Invoker
	Prompts     prompt.Registry
	Backend     string
	MaxExamples int
	FilterRules bool
	Logger      *zap.Logger
}

// Build runs QA extraction over the grouped scrape output. Threads
// whose completion comes back as the failure sentinel or as unparseable
// JSON are skipped, not fatal.
func (b *QABuilder) Build(ctx context.Context, grouped map[string]scrape.ThreadData) ([]QAExample, error) {
	if b.Dispatcher == nil || b.Invoker == nil {
		return nil, fmt.Errorf("qa builder needs a dispatcher and invoker")
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	qaPrompt, err := b.Prompts.Get(prompt.SlugQAExtraction)
	if err != nil {
		return nil, err
	}

	threadIDs := make([]string, 0, len(grouped))
	for id := range grouped {
		threadIDs = append(threadIDs, id)
	}
	sort.Strings(threadIDs)
	if b.MaxExamples > 0 && len(threadIDs) > b.MaxExamples {
		threadIDs = threadIDs[:b.MaxExamples]
	}

	prompts := make([]string, 0, len(threadIDs))
	for _, id := range threadIDs {
		posts, err := json.MarshalIndent(grouped[id].Posts, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode posts for thread %s: %w", id, err)
		}
		rendered, err := qaPrompt.Render(map[string]string{"posts": string(posts)})
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, rendered)
	}

	results, err := b.Dispatcher.Run(ctx, b.Invoker, b.Backend, prompts, true)
	if err != nil {
		return nil, err
	}

	examples := make([]QAExample, 0, len(results))
	for i, raw := range results {
		threadID := threadIDs[i]
		thread := grouped[threadID]

		if raw == infer.NoResponse {
			logger.Warn("thread skipped, no model response", zap.String("thread_id", threadID))
			continue
		}

		example, err := parseQAResponse(raw, thread)
		if err != nil {
			logger.Warn("thread skipped, unparseable extraction",
				zap.String("thread_id", threadID),
				zap.Error(err))
			continue
		}
		if b.FilterRules && !example.ContainsRulesQuestion && !example.IsAnswered {
			continue
		}
		examples = append(examples, *example)
	}

	logger.Info("qa extraction complete",
		zap.Int("threads", len(threadIDs)),
		zap.Int("examples", len(examples)))
	return examples, nil
}

// parseQAResponse decodes one extraction completion, tolerating loose
// typing in the model's JSON, and joins cited posts into raw text.
func parseQAResponse(raw string, thread scrape.ThreadData) (*QAExample, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &fields); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	example := &QAExample{
		FormattedQuestion:       asString(fields["formatted_question"]),
		FormattedAnswer:         asString(fields["formatted_answer"]),
		QuestionCitationIndices: asIntSlice(fields["question_citation_indices"]),
		AnswerCitationIndices:   asIntSlice(fields["answer_citation_indices"]),
		ContainsRulesQuestion:   asBool(fields["contains_rules_question"]),
		IsAnswered:              asBool(fields["is_answered"]),
		FullContent:             thread.Posts,
		URL:                     thread.URL,
		Topic:                   thread.Subject,
	}
	if strings.TrimSpace(example.FormattedQuestion) == "" {
		return nil, fmt.Errorf("extraction missing formatted_question")
	}

	example.RawQuestion = joinCitedPosts(thread.Posts, example.QuestionCitationIndices)
	example.RawAnswer = joinCitedPosts(thread.Posts, example.AnswerCitationIndices)
	return example, nil
}

// joinCitedPosts concatenates the content of cited posts, ignoring
// indices the model hallucinated out of range.
func joinCitedPosts(posts []scrape.Post, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(posts) {
			continue
		}
		parts = append(parts, posts[idx].Content)
	}
	return strings.Join(parts, "\n")
}

// WriteJSONL saves examples one JSON document per line.
func WriteJSONL[T any](path string, items []T) error {
	var sb strings.Builder
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode example: %w", err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil { // #nosec G306 -- dataset artifacts are world-readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON saves examples as one indented JSON array.
func WriteJSON[T any](path string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode examples: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- dataset artifacts are world-readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSONL loads JSONL examples of any record type.
func ReadJSONL[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Input path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var items []T
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadJSON loads a JSON array of examples.
func ReadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Input path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}
