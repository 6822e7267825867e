package handlers

import (
	"context"

	"codinground/internal/llm"
	"codinground/internal/prompts"
)

type mockProvider struct {
	completeFn        func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	getProviderNameFn func() string
}

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.completeFn == nil {
		return &llm.CompletionResponse{}, nil
	}
	return m.completeFn(ctx, req)
}

func (m *mockProvider) GetProviderName() string {
	if m.getProviderNameFn == nil {
		return "mock"
	}
	return m.getProviderNameFn()
}

type mockPromptManager struct {
	buildFn func(name string, data map[string]string) (*prompts.Prompt, error)
	namesFn func() []string
}

func (m *mockPromptManager) Build(name string, data map[string]string) (*prompts.Prompt, error) {
	if m.buildFn == nil {
		return &prompts.Prompt{System: "mock prompt"}, nil
	}
	return m.buildFn(name, data)
}

func (m *mockPromptManager) Names() []string {
	if m.namesFn == nil {
		return []string{"observer"}
	}
	return m.namesFn()
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(context.Context) error { return m.err }

var (
	_ llm.Provider           = (*mockProvider)(nil)
	_ prompts.PromptProvider = (*mockPromptManager)(nil)
	_ Pinger                 = mockPinger{}
)
