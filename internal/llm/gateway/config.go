package gateway

import (
	"errors"
	"os"
	"time"
)

// holds configuration of an OpenAI-compatible completion gateway
type Config struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewConfig() (*Config, error) {
	url := os.Getenv("AI_GATEWAY_URL")
	if url == "" {
		return nil, errors.New("AI_GATEWAY_URL environment variable is required")
	}

	model := os.Getenv("AI_GATEWAY_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	// zero means no client-side timeout; the request context still applies
	timeout, _ := time.ParseDuration(os.Getenv("AI_GATEWAY_TIMEOUT"))

	return &Config{
		URL:     url,
		APIKey:  os.Getenv("AI_GATEWAY_API_KEY"),
		Model:   model,
		Timeout: timeout,
	}, nil
}
