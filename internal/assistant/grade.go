package assistant

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/utils"
)

const (
	GradeFailedFeedback = "Evaluation failed - unable to grade code"
	NoFeedback          = "No feedback provided"
)

type gradeOutput struct {
	Score    *float64 `json:"score"`
	Feedback *string  `json:"feedback"`
}

// Grade scores code on 0..10. It never fails: any transport or parse problem
// yields a zero score with GradeFailedFeedback.
func (a *Assistant) Grade(ctx context.Context, code, language, problemText string) models.GradingResult {
	failed := models.GradingResult{Score: models.MinScore, Feedback: GradeFailedFeedback}

	resp, err := a.complete(ctx, PromptGrading, map[string]string{
		"Problem":  problems.FormatProblemText(problemText),
		"Language": language,
		"Code":     code,
	})
	if err != nil {
		return failed
	}

	var out gradeOutput
	if err := utils.ParseJSONObject(resp.Content, &out); err != nil || out.Score == nil {
		a.logger.Warn("grading output unusable", zap.Error(err), zap.String("content", utils.Truncate(resp.Content, 200)))
		return failed
	}

	feedback := NoFeedback
	if out.Feedback != nil && strings.TrimSpace(*out.Feedback) != "" {
		feedback = strings.TrimSpace(*out.Feedback)
	}
	return models.GradingResult{Score: clampScore(*out.Score), Feedback: feedback}
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return models.MinScore
	}
	return math.Max(models.MinScore, math.Min(models.MaxScore, s))
}
