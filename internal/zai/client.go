package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"keeper/internal/llm"
)

// Client wraps the Z.AI chat completion API behind the plain-text
// completion contract the agent core consumes.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *log.Logger
}

// NewClient configures a Z.AI completion client. The endpoint must come
// from config; there is no hardcoded default.
func NewClient(endpoint, apiKey, model string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("zai endpoint must be provided from config")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   trimmed,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete satisfies llm.Client.
func (c *Client) Complete(ctx context.Context, reqPayload llm.CompletionRequest) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", &llm.ProviderError{Type: llm.ErrorTypeMissingCredentials, Provider: "zai", Message: "no API key configured"}
	}

	messages := make([]chatMessage, 0, 2)
	if reqPayload.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: reqPayload.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: reqPayload.Prompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, MaxTokens: reqPayload.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Printf("[z.ai] completion request: model=%s prompt=%d chars", c.model, len(reqPayload.Prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &llm.ProviderError{Type: llm.ErrorTypeProviderDown, Provider: "zai", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	// Z.AI sometimes returns 200 with an error object (code + msg).
	var errResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != 0 && errResp.Msg != "" {
		return "", &llm.ProviderError{Type: llm.ErrorTypeBadStatus, Provider: "zai", Status: resp.StatusCode, Message: errResp.Msg}
	}

	if resp.StatusCode >= 300 {
		return "", &llm.ProviderError{
			Type:     llm.ClassifyStatus(resp.StatusCode),
			Provider: "zai",
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}
