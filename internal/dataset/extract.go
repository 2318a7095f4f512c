package dataset

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json(.*?)```")
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// ExtractJSON unwraps a ```json fenced block if the response carries
// one, otherwise returns the response unchanged.
func ExtractJSON(response string) string {
	if match := jsonFenceRe.FindStringSubmatch(response); match != nil {
		return strings.TrimSpace(match[1])
	}
	return response
}

// StripHTML removes HTML tags from forum post content.
func StripHTML(text string) string {
	return htmlTagRe.ReplaceAllString(text, "")
}

// SafeLoadList parses a JSON string list out of a model response.
// Anything unparseable yields an empty list rather than an error, since
// a single malformed completion should not abort a batch.
func SafeLoadList(response string) []string {
	payload := strings.TrimSpace(ExtractJSON(response))
	if payload == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil
	}
	return items
}

// asBool coerces model output that may be a bool or a "True"/"False" string.
func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	default:
		return false
	}
}

// asString coerces model output that should be text.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asIntSlice coerces citation indices that may arrive as numbers or
// numeric strings.
func asIntSlice(v any) []int {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		switch t := item.(type) {
		case float64:
			out = append(out, int(t))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
