// Package llmtest provides a scriptable llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"codinground/internal/llm"
)

// Provider records every request and answers through CompleteFn.
// With no CompleteFn it replies with Reply.
type Provider struct {
	CompleteFn func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	Reply      string
	Name       string

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.CompleteFn != nil {
		return p.CompleteFn(ctx, req)
	}
	return &llm.CompletionResponse{Content: p.Reply, Model: req.Model}, nil
}

func (p *Provider) GetProviderName() string {
	if p.Name == "" {
		return "mock"
	}
	return p.Name
}

// Calls returns how many completions were requested.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of the recorded requests.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// SystemPrompt returns the first system message of a request.
func SystemPrompt(req llm.CompletionRequest) string {
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			return m.Content
		}
	}
	return ""
}
