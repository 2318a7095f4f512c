package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Registry resolves the prompt a pipeline stage renders.
type Registry interface {
	Get(slug string) (*Prompt, error)
	Slugs() []string
}

// PipelineSlugs lists every prompt the pipeline stages request: QA
// extraction, the three distractor strategies, and MCQ evaluation.
func PipelineSlugs() []string {
	return []string{
		SlugQAExtraction,
		SlugDistractorsScratch,
		SlugDistractorsRulebook,
		SlugDistractorsForum,
		SlugEvalMCQ,
	}
}

// InMemoryRegistry indexes prompts by slug.
type InMemoryRegistry struct {
	prompts map[string]*Prompt
}

// NewRegistry indexes the prompts, rejecting nil entries, missing
// slugs, and duplicates. The prompt set is assembled at startup, so a
// malformed entry is a programming or packaging error worth failing on.
func NewRegistry(prompts []*Prompt) (*InMemoryRegistry, error) {
	indexed := make(map[string]*Prompt, len(prompts))
	for i, p := range prompts {
		if p == nil {
			return nil, fmt.Errorf("prompt %d is nil", i)
		}
		slug := strings.TrimSpace(p.Config.Slug)
		if slug == "" {
			return nil, fmt.Errorf("prompt %d has no slug", i)
		}
		if _, ok := indexed[slug]; ok {
			return nil, fmt.Errorf("duplicate prompt slug: %s", slug)
		}
		indexed[slug] = p
	}
	return &InMemoryRegistry{prompts: indexed}, nil
}

// Get returns the prompt registered under slug.
func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	p, ok := r.prompts[slug]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", slug)
	}
	return p, nil
}

// Slugs returns the registered slugs in sorted order.
func (r *InMemoryRegistry) Slugs() []string {
	if r == nil {
		return nil
	}
	slugs := make([]string, 0, len(r.prompts))
	for slug := range r.prompts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// MissingPipelineSlugs reports which pipeline prompts the registry
// lacks. A complete registry returns nil.
func (r *InMemoryRegistry) MissingPipelineSlugs() []string {
	var missing []string
	for _, slug := range PipelineSlugs() {
		if r == nil {
			missing = append(missing, slug)
			continue
		}
		if _, ok := r.prompts[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	return missing
}
