package dataset

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/prompt"
)

// DistractorBuilder synthesizes incorrect answer options for each QA
// example using three strategies: unassisted, rulebook-grounded, and
// forum-grounded. Forum grounding is attempted only when the source
// thread has at least MinForumPosts posts.
type DistractorBuilder struct {
	Dispatcher    *infer.Dispatcher
	Invoker       infer.Invoker
	Prompts       prompt.Registry
	Backend       string
	GamePreamble  string
	MinForumPosts int
	Logger        *zap.Logger
}

// distractorTask ties one dispatched prompt back to its example and strategy.
type distractorTask struct {
	example int
	kind    string
}

// Build generates MCQ examples with distractor sets.
func (b *DistractorBuilder) Build(ctx context.Context, examples []QAExample, rulebook string) ([]MCQExample, error) {
	if b.Dispatcher == nil || b.Invoker == nil {
		return nil, fmt.Errorf("distractor builder needs a dispatcher and invoker")
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minPosts := b.MinForumPosts
	if minPosts <= 0 {
		minPosts = 3
	}

	scratchPrompt, err := b.Prompts.Get(prompt.SlugDistractorsScratch)
	if err != nil {
		return nil, err
	}
	rulebookPrompt, err := b.Prompts.Get(prompt.SlugDistractorsRulebook)
	if err != nil {
		return nil, err
	}
	forumPrompt, err := b.Prompts.Get(prompt.SlugDistractorsForum)
	if err != nil {
		return nil, err
	}

	var (
		prompts []string
		tasks   []distractorTask
	)
	mcqs := make([]MCQExample, len(examples))
	for i, example := range examples {
		question := b.GamePreamble + example.FormattedQuestion
		answer := example.FormattedAnswer
		mcqs[i] = MCQExample{
			MultipleChoiceQuestion: question,
			CorrectAnswer:          answer,
			Distractors:            map[string][]string{},
			URL:                    example.URL,
		}

		rendered, err := scratchPrompt.Render(map[string]string{
			"question": question,
			"answer":   answer,
		})
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, rendered)
		tasks = append(tasks, distractorTask{example: i, kind: DistractorFromScratch})

		rendered, err = rulebookPrompt.Render(map[string]string{
			"question": question,
			"answer":   answer,
			"rulebook": rulebook,
		})
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, rendered)
		tasks = append(tasks, distractorTask{example: i, kind: DistractorFromRulebook})

		if len(example.FullContent) >= minPosts {
			rendered, err = forumPrompt.Render(map[string]string{
				"question":   question,
				"answer":     answer,
				"discussion": forumDiscussion(example),
			})
			if err != nil {
				return nil, err
			}
			prompts = append(prompts, rendered)
			tasks = append(tasks, distractorTask{example: i, kind: DistractorFromForum})
		}
	}

	results, err := b.Dispatcher.Run(ctx, b.Invoker, b.Backend, prompts, false)
	if err != nil {
		return nil, err
	}

	for i, raw := range results {
		task := tasks[i]
		distractors := SafeLoadList(raw)
		if len(distractors) == 0 {
			logger.Warn("distractor generation yielded nothing",
				zap.Int("example", task.example),
				zap.String("kind", task.kind))
			// The forum set is optional and simply omitted; the other
			// strategies keep an empty entry so downstream filtering
			// can see the gap.
			if task.kind == DistractorFromForum {
				continue
			}
		}
		mcqs[task.example].Distractors[task.kind] = distractors
	}

	return mcqs, nil
}

// forumDiscussion joins the thread's posts into one cleaned text block.
func forumDiscussion(example QAExample) string {
	parts := make([]string, 0, len(example.FullContent))
	for _, post := range example.FullContent {
		parts = append(parts, StripHTML(post.Content))
	}
	return strings.Join(parts, "\n")
}
