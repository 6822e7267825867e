package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"codinground/internal/llm"
)

// Client represents a Gemini LLM client
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// Complete sends the role-tagged conversation to Gemini. System messages are
// folded into the system instruction; assistant turns become "model" turns.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	system, contents := toContents(req.Messages)
	if len(contents) == 0 {
		if system == "" {
			return nil, &llm.ProviderError{
				Provider: "gemini",
				Code:     llm.ErrCodeInvalidInput,
				Message:  "No messages to send",
			}
		}
		contents = []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: system}}}}
		system = ""
	}

	temperature := float32(req.Temperature)
	genConfig := &genai.GenerateContentConfig{Temperature: &temperature}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.ResponseFormat == llm.FormatJSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		code := llm.ErrCodeServiceDown
		if llm.IsRateLimitError(err) {
			code = llm.ErrCodeRateLimit
		}
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     code,
			Message:  "Failed to generate completion",
			Err:      err,
		}
	}

	if result == nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text := responseText(result)
	if text == "" {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return &llm.CompletionResponse{
		Content:        text,
		Model:          model,
		ProcessingTime: int(time.Since(startTime).Milliseconds()),
	}, nil
}

func (c *Client) GetProviderName() string {
	return "gemini"
}

func toContents(messages []llm.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: msg.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func responseText(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
