package assistant

import (
	"context"
	"encoding/json"

	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/utils"
)

// RunCode simulates executing the code against the problem's examples.
func (a *Assistant) RunCode(ctx context.Context, problem models.Problem, code, language string, analysis *models.ObserverAnalysis) (*models.RunResult, error) {
	notes := ""
	if analysis != nil {
		if data, err := json.Marshal(analysis); err == nil {
			notes = string(data)
		}
	}

	resp, err := a.complete(ctx, PromptRunCode, map[string]string{
		"Language": language,
		"Problem":  problems.ProblemText(problem),
		"Examples": problems.FormatExamples(problem.Examples),
		"Analysis": notes,
		"Code":     code,
	})
	if err != nil {
		return nil, err
	}

	result := &models.RunResult{}
	if err := utils.ParseJSONObject(resp.Content, result); err != nil {
		// plain text output is still useful to show
		return &models.RunResult{Output: utils.StripFences(resp.Content), Results: []models.TestResult{}}, nil
	}
	if result.Results == nil {
		result.Results = []models.TestResult{}
	}
	return result, nil
}
