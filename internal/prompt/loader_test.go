package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCoversPipelineSlugs(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	for _, slug := range PipelineSlugs() {
		p, err := reg.Get(slug)
		require.NoError(t, err)
		require.NotEmpty(t, p.Config.Template)
	}
	require.Len(t, reg.Slugs(), len(PipelineSlugs()))
}

func TestLoadParsesFrontmatterAndBody(t *testing.T) {
	data := []byte(`---
slug: sample
structured: true
input:
  required_variables:
    - posts
---
Summarize: {{posts}}`)

	p, err := Load("sample.md", data)
	require.NoError(t, err)
	require.Equal(t, "sample", p.Config.Slug)
	require.True(t, p.Config.Structured)
	require.Equal(t, []string{"posts"}, p.Config.Input.RequiredVariables)
	require.Equal(t, "Summarize: {{posts}}", p.Config.Template)
}

func TestLoadRejectsMissingSlug(t *testing.T) {
	_, err := Load("broken.md", []byte("---\nname: no slug\n---\nbody"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing slug")
}

func TestRenderSubstitutesVariables(t *testing.T) {
	p := &Prompt{Config: Config{
		Slug:     "sample",
		Template: "Q: {{question}}\nA: {{answer}}",
		Input:    InputSpec{RequiredVariables: []string{"question", "answer"}},
	}}

	out, err := p.Render(map[string]string{"question": "How many players?", "answer": "Four"})
	require.NoError(t, err)
	require.Equal(t, "Q: How many players?\nA: Four", out)
}

func TestRenderRejectsMissingRequiredVariable(t *testing.T) {
	p := &Prompt{Config: Config{
		Slug:     "sample",
		Template: "{{question}}",
		Input:    InputSpec{RequiredVariables: []string{"question"}},
	}}

	_, err := p.Render(map[string]string{"question": "  "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "question")
}

func TestRenderConditionalBlocks(t *testing.T) {
	p := &Prompt{Config: Config{
		Slug:     "sample",
		Template: "{{#if references}}refs: {{references}}{{else}}no refs{{/if}}",
	}}

	out, err := p.Render(map[string]string{"references": "rulebook"})
	require.NoError(t, err)
	require.Equal(t, "refs: rulebook", out)

	out, err = p.Render(nil)
	require.NoError(t, err)
	require.Equal(t, "no refs", out)
}

func TestRegistryRejectsDuplicateSlugs(t *testing.T) {
	a := &Prompt{Config: Config{Slug: "dup", Template: "x"}}
	b := &Prompt{Config: Config{Slug: "dup", Template: "y"}}
	_, err := NewRegistry([]*Prompt{a, b})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestRegistryRejectsNilPrompt(t *testing.T) {
	a := &Prompt{Config: Config{Slug: "ok", Template: "x"}}
	_, err := NewRegistry([]*Prompt{a, nil})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestRegistryReportsMissingPipelineSlugs(t *testing.T) {
	partial := []*Prompt{
		{Config: Config{Slug: SlugQAExtraction, Template: "x"}},
		{Config: Config{Slug: SlugEvalMCQ, Template: "y"}},
	}
	reg, err := NewRegistry(partial)
	require.NoError(t, err)

	missing := reg.MissingPipelineSlugs()
	require.ElementsMatch(t, []string{
		SlugDistractorsScratch,
		SlugDistractorsRulebook,
		SlugDistractorsForum,
	}, missing)

	require.Equal(t, []string{SlugEvalMCQ, SlugQAExtraction}, reg.Slugs())
}
