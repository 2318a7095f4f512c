package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/prompt"
	"github.com/rulebench/rulebench/internal/scrape"
)

// scriptedInvoker resolves each prompt by the first matching substring rule.
type scriptedRule struct {
	marker   string
	response string
	err      error
}

type scriptedInvoker struct {
	rules []scriptedRule
}

func (s *scriptedInvoker) Invoke(_ context.Context, p string, _ bool) (string, error) {
	for _, rule := range s.rules {
		if strings.Contains(p, rule.marker) {
			return rule.response, rule.err
		}
	}
	return "", errors.New("no scripted response")
}

func testDispatcher(t *testing.T) *infer.Dispatcher {
	t.Helper()
	d, err := infer.NewDispatcher(nil)
	require.NoError(t, err)
	return d
}

func testRegistry(t *testing.T) prompt.Registry {
	t.Helper()
	reg, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	return reg
}

func sampleThreads() map[string]scrape.ThreadData {
	return map[string]scrape.ThreadData{
		"101": {
			Subject: "Coronation timing",
			Author:  "alice",
			URL:     "https://boardgamegeek.com/thread/101",
			Posts: []scrape.Post{
				{ID: 1, ThreadID: 101, Username: "alice", Content: "Can I coronate the same turn I buy the card?"},
				{ID: 2, ThreadID: 101, Username: "bob", Content: "No, coronation happens on a later turn."},
			},
		},
		"202": {
			Subject: "Off topic",
			Author:  "carol",
			URL:     "https://boardgamegeek.com/thread/202",
			Posts: []scrape.Post{
				{ID: 3, ThreadID: 202, Username: "carol", Content: "Selling my copy, anyone interested?"},
			},
		},
	}
}

func TestQABuilderExtractsExamples(t *testing.T) {
	invoker := &scriptedInvoker{rules: []scriptedRule{
		{marker: "coronate the same turn", response: `{
			"formatted_question": "Can a player coronate on the turn the card is bought?",
			"formatted_answer": "No, coronation happens on a later turn.",
			"question_citation_indices": [0],
			"answer_citation_indices": [1],
			"contains_rules_question": true,
			"is_answered": true
		}`},
		{marker: "Selling my copy", response: `{
			"formatted_question": "Is this for sale?",
			"formatted_answer": "",
			"question_citation_indices": [0],
			"answer_citation_indices": [],
			"contains_rules_question": false,
			"is_answered": false
		}`},
	}}

	builder := &QABuilder{
		Dispatcher: testDispatcher(t),
		Invoker:    invoker,
		Prompts:    testRegistry(t),
		Backend:    "gpt-4o",
	}

	examples, err := builder.Build(context.Background(), sampleThreads())
	require.NoError(t, err)
	require.Len(t, examples, 2)

	rules := examples[0]
	require.True(t, rules.ContainsRulesQuestion)
	require.Equal(t, "Can a player coronate on the turn the card is bought?", rules.FormattedQuestion)
	require.Equal(t, "Can I coronate the same turn I buy the card?", rules.RawQuestion)
	require.Equal(t, "No, coronation happens on a later turn.", rules.RawAnswer)
	require.Equal(t, "https://boardgamegeek.com/thread/101", rules.URL)
	require.Equal(t, "Coronation timing", rules.Topic)
	require.Len(t, rules.FullContent, 2)
}

func TestQABuilderFiltersNonRulesThreads(t *testing.T) {
	invoker := &scriptedInvoker{rules: []scriptedRule{
		{marker: "coronate the same turn", response: `{"formatted_question": "Q", "formatted_answer": "A", "contains_rules_question": true, "is_answered": true}`},
		{marker: "Selling my copy", response: `{"formatted_question": "Sale?", "contains_rules_question": false, "is_answered": false}`},
	}}

	builder := &QABuilder{
		Dispatcher:  testDispatcher(t),
		Invoker:     invoker,
		Prompts:     testRegistry(t),
		Backend:     "gpt-4o",
		FilterRules: true,
	}

	examples, err := builder.Build(context.Background(), sampleThreads())
	require.NoError(t, err)
	require.Len(t, examples, 1)
	require.Equal(t, "Q", examples[0].FormattedQuestion)
}

func TestQABuilderSkipsFailedThreads(t *testing.T) {
	invoker := &scriptedInvoker{rules: []scriptedRule{
		{marker: "coronate the same turn", response: `{"formatted_question": "Q", "formatted_answer": "A"}`},
		{marker: "Selling my copy", err: errors.New("request failed: content filter being triggered")},
	}}

	builder := &QABuilder{
		Dispatcher: testDispatcher(t),
		Invoker:    invoker,
		Prompts:    testRegistry(t),
		Backend:    "gpt-4o",
	}

	examples, err := builder.Build(context.Background(), sampleThreads())
	require.NoError(t, err)
	require.Len(t, examples, 1)
}

func TestQABuilderHonorsMaxExamples(t *testing.T) {
	invoker := &scriptedInvoker{rules: []scriptedRule{
		{marker: "coronate the same turn", response: `{"formatted_question": "Q", "formatted_answer": "A"}`},
	}}

	builder := &QABuilder{
		Dispatcher:  testDispatcher(t),
		Invoker:     invoker,
		Prompts:     testRegistry(t),
		Backend:     "gpt-4o",
		MaxExamples: 1,
	}

	// Thread ids sort lexicographically, so only "101" is processed.
	examples, err := builder.Build(context.Background(), sampleThreads())
	require.NoError(t, err)
	require.Len(t, examples, 1)
}

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examples.jsonl")
	in := []QAExample{
		{FormattedQuestion: "Q1", FormattedAnswer: "A1", URL: "u1"},
		{FormattedQuestion: "Q2", FormattedAnswer: "A2", URL: "u2"},
	}
	require.NoError(t, WriteJSONL(path, in))

	out, err := ReadJSONL[QAExample](path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
