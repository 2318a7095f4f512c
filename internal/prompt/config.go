package prompt

// Config describes a prompt definition loaded from YAML frontmatter.
type Config struct {
	Slug        string    `yaml:"slug"`
	Name        string    `yaml:"name,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Version     string    `yaml:"version,omitempty"`
	Structured  bool      `yaml:"structured,omitempty"`
	Input       InputSpec `yaml:"input,omitempty"`
	Template    string    `yaml:"template,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty"`
}

// Prompt wraps a parsed prompt definition with its source.
type Prompt struct {
	Config Config
	Source string
}
