package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Render substitutes variables into the prompt template. Conditional
// blocks are resolved first, then {{name}} placeholders. Required
// variables must be present and non-empty.
func (p *Prompt) Render(vars map[string]string) (string, error) {
	if p == nil {
		return "", errors.New("prompt is required")
	}
	for _, name := range p.Config.Input.RequiredVariables {
		if strings.TrimSpace(vars[name]) == "" {
			return "", fmt.Errorf("prompt %s: missing required variable %q", p.Config.Slug, name)
		}
	}

	rendered := applyConditionals(p.Config.Template, vars)
	rendered = applyVars(rendered, vars)
	return strings.TrimSpace(rendered), nil
}

func applyVars(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// applyConditionals handles {{#if var}}content{{else}}fallback{{/if}} blocks.
// If the variable exists and is non-empty, the content is included; otherwise the fallback is used.
func applyConditionals(template string, vars map[string]string) string {
	result := template
	for {
		start := strings.Index(result, "{{#if")
		if start == -1 {
			break
		}
		tagEnd := strings.Index(result[start:], "}}")
		if tagEnd == -1 {
			break
		}
		tagEnd += start

		varName := strings.TrimSpace(result[start+5 : tagEnd])
		elseStart, elseEnd, closeStart, closeEnd := findConditionalEnds(result, tagEnd+2)
		if closeStart == -1 {
			break
		}

		var replacement string
		if strings.TrimSpace(vars[varName]) != "" {
			if elseStart != -1 {
				replacement = result[tagEnd+2 : elseStart]
			} else {
				replacement = result[tagEnd+2 : closeStart]
			}
		} else if elseStart != -1 {
			replacement = result[elseEnd:closeStart]
		}

		result = result[:start] + replacement + result[closeEnd:]
	}
	return result
}

// findConditionalEnds locates the matching {{else}} and {{/if}} for the
// conditional opened just before start, tracking nesting depth.
func findConditionalEnds(input string, start int) (elseStart, elseEnd, closeStart, closeEnd int) {
	depth := 0
	elseStart = -1
	elseEnd = -1

	pos := start
	for {
		openIdx := strings.Index(input[pos:], "{{")
		if openIdx == -1 {
			return -1, -1, -1, -1
		}
		openIdx += pos

		closeIdx := strings.Index(input[openIdx:], "}}")
		if closeIdx == -1 {
			return -1, -1, -1, -1
		}
		closeIdx += openIdx

		tag := strings.TrimSpace(input[openIdx+2 : closeIdx])
		switch {
		case tag == "#if" || strings.HasPrefix(tag, "#if "):
			depth++
		case tag == "/if":
			if depth == 0 {
				return elseStart, elseEnd, openIdx, closeIdx + 2
			}
			depth--
		case tag == "else" && depth == 0 && elseStart == -1:
			elseStart = openIdx
			elseEnd = closeIdx + 2
		}

		pos = closeIdx + 2
	}
}
