package llm

import "context"

// CompletionRequest is the provider-agnostic payload for one completion call.
type CompletionRequest struct {
	Prompt       string `json:"prompt"`
	MaxTokens    int    `json:"max_tokens"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Client represents an LLM provider capable of servicing plain-text
// completions. Implementations must fail distinguishably on missing
// credentials, unreachable endpoints, and non-2xx statuses; error messages
// carry the HTTP status code and raw body for diagnostics (see errors.go).
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
