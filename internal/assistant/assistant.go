package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"codinground/internal/llm"
	"codinground/internal/prompts"
)

// Prompt template names.
const (
	PromptObserver    = "observer"
	PromptInterviewer = "interviewer"
	PromptRunCode     = "run_code"
	PromptGrading     = "grading"
)

// Assistant wraps the completion provider with the four call sites of a coding round.
type Assistant struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	model    string
	logger   *zap.Logger
}

func New(provider llm.Provider, promptProvider prompts.PromptProvider, model string, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		provider: provider,
		prompts:  promptProvider,
		model:    model,
		logger:   logger,
	}
}

// ProviderName reports which backend serves completions.
func (a *Assistant) ProviderName() string {
	return a.provider.GetProviderName()
}

// complete runs a single-turn prompt.
func (a *Assistant) complete(ctx context.Context, name string, data map[string]string) (*llm.CompletionResponse, error) {
	prompt, err := a.prompts.Build(name, data)
	if err != nil {
		return nil, fmt.Errorf("build %s prompt: %w", name, err)
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: prompt.System}}
	if prompt.User != "" {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt.User})
	}

	return a.send(ctx, name, llm.CompletionRequest{
		Messages:       messages,
		Model:          a.model,
		Temperature:    prompt.Temperature,
		ResponseFormat: prompt.ResponseFormat,
	})
}

func (a *Assistant) send(ctx context.Context, name string, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		var perr *llm.ProviderError
		if errors.As(err, &perr) {
			a.logger.Warn("completion failed",
				zap.String("call", name),
				zap.String("provider", perr.Provider),
				zap.String("code", perr.Code),
				zap.Error(err))
		} else {
			a.logger.Warn("completion failed", zap.String("call", name), zap.Error(err))
		}
		return nil, err
	}

	a.logger.Debug("completion finished",
		zap.String("call", name),
		zap.String("provider", a.provider.GetProviderName()),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}
