package dataset

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rulebench/rulebench/internal/scrape"
)

func sampleQAExamples() []QAExample {
	return []QAExample{
		{
			FormattedQuestion: "Can a player coronate on the turn the card is bought?",
			FormattedAnswer:   "No, coronation happens on a later turn.",
			URL:               "https://boardgamegeek.com/thread/101",
			FullContent: []scrape.Post{
				{Content: "<p>Can I coronate now?</p>"},
				{Content: "No."},
				{Content: "Agreed, later turn."},
			},
		},
		{
			FormattedQuestion: "Who starts the game?",
			FormattedAnswer:   "The player west of the dealer.",
			URL:               "https://boardgamegeek.com/thread/102",
			FullContent: []scrape.Post{
				{Content: "Who goes first?"},
			},
		},
	}
}

func TestDistractorBuilderGeneratesAllSets(t *testing.T) {
	invoker := &scriptedInvoker{rules: []scriptedRule{
		{marker: "Rulebook Text", response: `["R1", "R2", "R3", "R4", "R5"]`},
		{marker: "Forum Discussion", response: `["F1", "F2", "F3", "F4", "F5"]`},
		// Last rule catches the unassisted strategy.
		{marker: "boardgame rules question", response: `["S1", "S2", "S3", "S4", "S5"]`},
	}}

	builder := &DistractorBuilder{
		Dispatcher:   testDispatcher(t),
		Invoker:      invoker,
		Prompts:      testRegistry(t),
		Backend:      "gpt-4o",
		GamePreamble: "This question is about a boardgame called Pax Renaissance. ",
	}

	mcqs, err := builder.Build(context.Background(), sampleQAExamples(), "rulebook text here")
	require.NoError(t, err)
	require.Len(t, mcqs, 2)

	first := mcqs[0]
	require.Equal(t, "This question is about a boardgame called Pax Renaissance. Can a player coronate on the turn the card is bought?", first.MultipleChoiceQuestion)
	require.Equal(t, "No, coronation happens on a later turn.", first.CorrectAnswer)
	require.Equal(t, []string{"S1", "S2", "S3", "S4", "S5"}, first.Distractors[DistractorFromScratch])
	require.Equal(t, []string{"R1", "R2", "R3", "R4", "R5"}, first.Distractors[DistractorFromRulebook])
	require.Equal(t, []string{"F1", "F2", "F3", "F4", "F5"}, first.Distractors[DistractorFromForum])

	// The second thread has fewer than three posts, so no forum set.
	second := mcqs[1]
	require.NotContains(t, second.Distractors, DistractorFromForum)
	require.Contains(t, second.Distractors, DistractorFromScratch)
	require.Contains(t, second.Distractors, DistractorFromRulebook)
}

func TestDistractorBuilderStripsHTMLFromDiscussion(t *testing.T) {
	var captured string
	invoker := &capturingInvoker{onForum: func(p string) { captured = p }}

	builder := &DistractorBuilder{
		Dispatcher: testDispatcher(t),
		Invoker:    invoker,
		Prompts:    testRegistry(t),
		Backend:    "gpt-4o",
	}

	_, err := builder.Build(context.Background(), sampleQAExamples()[:1], "rulebook")
	require.NoError(t, err)
	require.Contains(t, captured, "Can I coronate now?")
	require.NotContains(t, captured, "<p>")
}

type capturingInvoker struct {
	onForum func(prompt string)
}

func (c *capturingInvoker) Invoke(_ context.Context, p string, _ bool) (string, error) {
	if c.onForum != nil && strings.Contains(p, "Forum Discussion") {
		c.onForum(p)
	}
	return `["D1", "D2", "D3", "D4", "D5"]`, nil
}
