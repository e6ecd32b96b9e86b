package openrouter

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
	"keeper/internal/logging"
)

// Client is a minimal HTTP wrapper around the OpenRouter chat completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *log.Logger
}

// NewClient wires together the dependencies for API access.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
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

// Complete executes a single completion request.
func (c *Client) Complete(ctx context.Context, reqPayload llm.CompletionRequest) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", &llm.ProviderError{Type: llm.ErrorTypeMissingCredentials, Provider: "openrouter", Message: "no API key configured"}
	}

	messages := make([]chatMessage, 0, 2)
	if reqPayload.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: reqPayload.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: reqPayload.Prompt})

	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, MaxTokens: reqPayload.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "Keeper")

	logging.DevLog("openrouter: sending completion to %s (%d chars)", c.model, len(reqPayload.Prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &llm.ProviderError{Type: llm.ErrorTypeProviderDown, Provider: "openrouter", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		logging.ErrorLog("openrouter API error: %d - %s", resp.StatusCode, string(body))
		return "", &llm.ProviderError{
			Type:     llm.ClassifyStatus(resp.StatusCode),
			Provider: "openrouter",
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logging.ErrorLog("openrouter response parse error: %v", err)
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}
