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

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// It works against the hosted API as well as self-hosted gateways that
// expose the same surface.
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      RetryConfig
}

type openAIChoice struct {
	Message Message `json:"message"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
}

// NewOpenAIClient creates a client for the given base URL. An empty base
// URL targets the hosted API.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration, retry RetryConfig) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		retry:      retry.normalized(),
	}
}

// Name implements Provider.
func (c *OpenAIClient) Name() string { return "openai" }

// Chat implements Provider against the /chat/completions endpoint.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("openai api key is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

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
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retry.MaxAttempts {
				lastErr = err
				time.Sleep(capDelay(withJitter(backoff), c.retry.MaxDelay))
				backoff *= 2
				continue
			}
			return nil, fmt.Errorf("http request: %w", err)
		}

		out, apiErr := decodeOpenAIResponse(resp)
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

func decodeOpenAIResponse(resp *http.Response) (*ChatResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if v, ok := raw["error"].(map[string]any); ok {
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
		} else if msg, ok := raw["message"].(string); ok {
			apiErr.Message = msg
		}
		return nil, apiErr
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("response contained no choices")
	}
	return &ChatResponse{
		Content:   out.Choices[0].Message.Content,
		Model:     out.Model,
		RequestID: out.ID,
	}, nil
}
