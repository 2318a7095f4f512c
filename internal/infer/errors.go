package infer

import "strings"

// NoResponse is substituted for any unrecoverable per-prompt failure.
// Downstream consumers treat it as an incorrect answer, never as a crash.
const NoResponse = "No Response"

// contentFilterMarkers are the provider error fragments that indicate a
// content-moderation refusal. Azure OpenAI phrases these two ways depending
// on whether the prompt or the completion tripped the filter.
var contentFilterMarkers = []string{
	"content filter being triggered",
	"was filtered due to",
}

// IsContentFiltered reports whether the error is a content-moderation
// rejection. Filtered calls are terminal: they are never retried.
func IsContentFiltered(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range contentFilterMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
