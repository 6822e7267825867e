package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codinground/internal/llm"
)

// Client talks to a completion gateway speaking the chat-completions wire format.
type Client struct {
	httpClient *http.Client
	config     *Config
}

func NewClient(config *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{httpClient: httpClient, config: config}
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Messages       []llm.Message   `json:"messages"`
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	startTime := time.Now()

	body := completionRequest{
		Messages:    req.Messages,
		Model:       req.Model,
		Temperature: req.Temperature,
	}
	if body.Model == "" {
		body.Model = c.config.Model
	}
	if req.ResponseFormat != "" {
		body.ResponseFormat = &responseFormat{Type: req.ResponseFormat}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeInvalidInput, Message: "Failed to encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeInvalidInput, Message: "Failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		code := llm.ErrCodeServiceDown
		if ctx.Err() != nil {
			code = llm.ErrCodeTimeout
		}
		return nil, &llm.ProviderError{Provider: "gateway", Code: code, Message: "Gateway request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeServiceDown, Message: "Failed to read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeRateLimit, Message: "Rate limited by gateway"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeAPIKey, Message: "Gateway rejected credentials"}
	case resp.StatusCode >= 300:
		return nil, &llm.ProviderError{
			Provider: "gateway",
			Code:     llm.ErrCodeServiceDown,
			Message:  fmt.Sprintf("Gateway returned status %d", resp.StatusCode),
		}
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeInvalidInput, Message: "Malformed gateway response", Err: err}
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return nil, &llm.ProviderError{Provider: "gateway", Code: llm.ErrCodeInvalidInput, Message: "Empty response generated"}
	}

	model := decoded.Model
	if model == "" {
		model = body.Model
	}

	return &llm.CompletionResponse{
		Content:        decoded.Choices[0].Message.Content,
		Model:          model,
		ProcessingTime: int(time.Since(startTime).Milliseconds()),
	}, nil
}

func (c *Client) GetProviderName() string {
	return "gateway"
}
