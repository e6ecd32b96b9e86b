// Package mockclient provides a scripted llm.Client for tests and the
// built-in self-check. Responses are consumed in order; when the script is
// exhausted the responder function (if set) takes over, else a fixed reply.
package mockclient

import (
	"context"
	"sync"

	"keeper/internal/llm"
)

type Client struct {
	mu        sync.Mutex
	responses []string
	responder func(llm.CompletionRequest) string
	calls     int
}

func New(responses ...string) *Client {
	return &Client{responses: responses}
}

// NewWithResponder builds a client that computes replies from the request
// once the scripted responses run out.
func NewWithResponder(responder func(llm.CompletionRequest) string, responses ...string) *Client {
	return &Client{responses: responses, responder: responder}
}

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.responses) > 0 {
		resp := c.responses[0]
		c.responses = c.responses[1:]
		return resp, nil
	}
	if c.responder != nil {
		return c.responder(req), nil
	}
	return `{"type":"clarification","clarification":"mock script exhausted"}`, nil
}

// Calls reports how many completions were requested.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
