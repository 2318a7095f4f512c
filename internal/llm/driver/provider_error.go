package driver

import "fmt"

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Message carries the provider's error body verbatim so the dispatch layer
// can classify content-moderation refusals by their wording. RawResponse must
// never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// Retryable reports whether the failure class is worth a transport-level
// retry. Content-filter rejections surface as 400s and are terminal.
func (e *ProviderError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode <= 599)
}
