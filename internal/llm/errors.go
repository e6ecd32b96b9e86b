package llm

import (
	"errors"
	"fmt"
)

// ErrorType classifies provider errors for callers that need to decide
// between surfacing, aborting, or switching providers.
type ErrorType string

const (
	ErrorTypeMissingCredentials ErrorType = "missing_credentials" // no API key configured
	ErrorTypeAuth               ErrorType = "auth"                // 401 - bad API key
	ErrorTypeRateLimit          ErrorType = "rate_limit"          // 429 - too many requests
	ErrorTypeProviderDown       ErrorType = "provider_down"       // 502/503 or unreachable
	ErrorTypeBadStatus          ErrorType = "bad_status"          // other non-2xx
	ErrorTypeUnknown            ErrorType = "unknown"             // fallback
)

// ProviderError is a structured error returned by LLM clients.
type ProviderError struct {
	Type     ErrorType
	Provider string // "zai", "openrouter", "mock"
	Status   int    // HTTP status, 0 when the request never completed
	Message  string // includes the raw response body for non-2xx statuses
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsProviderError checks if err is a ProviderError and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ClassifyStatus maps an HTTP status to an error type.
func ClassifyStatus(status int) ErrorType {
	switch {
	case status == 401 || status == 403:
		return ErrorTypeAuth
	case status == 429:
		return ErrorTypeRateLimit
	case status == 502 || status == 503 || status == 504:
		return ErrorTypeProviderDown
	case status >= 300:
		return ErrorTypeBadStatus
	}
	return ErrorTypeUnknown
}
