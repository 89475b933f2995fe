package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaClient talks to a local Ollama runtime via /api/chat.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	retry      RetryConfig
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// NewOllamaClient creates a client targeting the given host, for example
// http://127.0.0.1:11434.
func NewOllamaClient(host string, timeout time.Duration, retry RetryConfig) *OllamaClient {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: timeout},
		host:       host,
		retry:      retry.normalized(),
	}
}

// Name implements Provider.
func (c *OllamaClient) Name() string { return "ollama" }

// Chat implements Provider against Ollama's non-streaming /api/chat.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}

	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := c.host + "/api/chat"

	backoff := c.retry.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retry.MaxAttempts {
				lastErr = err
				time.Sleep(capDelay(withJitter(backoff), c.retry.MaxDelay))
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: c.host, Err: err}
		}

		out, apiErr := decodeOllamaResponse(resp)
		if apiErr == nil {
			return out, nil
		}
		lastErr = apiErr

		var ae *APIError
		if errors.As(apiErr, &ae) && isRetryableStatus(ae.StatusCode) && attempt < c.retry.MaxAttempts {
			time.Sleep(capDelay(withJitter(backoff), c.retry.MaxDelay))
			backoff *= 2
			continue
		}
		break
	}
	return nil, lastErr
}

func decodeOllamaResponse(resp *http.Response) (*ChatResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if msg, ok := raw["error"].(string); ok {
			apiErr.Message = msg
		}
		return nil, apiErr
	}

	var oresp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ChatResponse{
		Content:   oresp.Message.Content,
		Model:     oresp.Model,
		RequestID: fmt.Sprintf("ollama_%d", time.Now().UnixNano()),
	}, nil
}
