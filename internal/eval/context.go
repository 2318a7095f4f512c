package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadContextConfigs reads a JSON list of context configurations.
func LoadContextConfigs(path string) ([]ContextConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Context config path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read context configs: %w", err)
	}
	var configs []ContextConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("decode context configs: %w", err)
	}
	return configs, nil
}

// ResolveContext loads the source files of one configuration. A missing
// file becomes a placeholder string rather than an error, so a typo in
// one source does not abort the whole evaluation.
func ResolveContext(cfg ContextConfig) Context {
	resolved := Context{Name: cfg.Name}
	for _, source := range cfg.Sources {
		for label, path := range source {
			content, err := os.ReadFile(path) // #nosec G304 -- Source path comes from the context config
			if err != nil {
				resolved.Sources = append(resolved.Sources, SourceData{
					Label:   label,
					Content: fmt.Sprintf("[File Not Found: %s]", path),
				})
				continue
			}
			resolved.Sources = append(resolved.Sources, SourceData{Label: label, Content: string(content)})
		}
	}
	return resolved
}

// References renders the reference-material block placed before the
// question, or an empty string for a context with no sources.
func (c Context) References() string {
	if len(c.Sources) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, source := range c.Sources {
		sb.WriteString(fmt.Sprintf("[Reference Material Description]: %s\n", source.Label))
		sb.WriteString(fmt.Sprintf("[Reference Material Content]: %s\n\n", source.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}
