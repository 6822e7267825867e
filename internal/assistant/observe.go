package assistant

import (
	"context"

	"go.uber.org/zap"

	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/utils"
)

// Observe asks for a silent structured analysis of the candidate's code.
// It returns nil when the call fails or the content is not a JSON object;
// callers then proceed without context.
func (a *Assistant) Observe(ctx context.Context, problem models.Problem, code, language string) *models.ObserverAnalysis {
	resp, err := a.complete(ctx, PromptObserver, map[string]string{
		"Language": language,
		"Problem":  problems.ProblemText(problem),
		"Code":     utils.AddLineNumbers(code),
	})
	if err != nil {
		return nil
	}

	analysis := &models.ObserverAnalysis{}
	if err := utils.ParseJSONObject(resp.Content, analysis); err != nil {
		a.logger.Warn("observer returned non-JSON content", zap.Error(err))
		return nil
	}
	analysis.Normalize()
	return analysis
}
