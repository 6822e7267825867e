package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"codinground/internal/backend"
	"codinground/internal/models"
	"codinground/internal/problems"
)

// Problem sources, reported in events and metrics.
const (
	SourceBackend   = "backend"
	SourceFallback  = "fallback"
	SourceError     = "error"
	SourceNoSession = "no_session"
)

type loadResult struct {
	postTitle    string
	interactions []models.Interaction
	source       string
}

// loadInteractions fetches the session's problems once. Any failure degrades to the
// generic fallback problem; an empty list picks a fallback by job title. It never writes.
func loadInteractions(ctx context.Context, b backend.Backend, catalog *problems.Catalog, sessionID string, logger *zap.Logger) loadResult {
	if sessionID == "" {
		return fallbackResult("", catalog.Get(problems.KindGeneric), SourceNoSession)
	}

	resp, err := b.GetCodingQuestions(ctx, sessionID)
	if err != nil {
		logger.Warn("failed to load coding questions, using fallback", zap.String("session_id", sessionID), zap.Error(err))
		return fallbackResult("", catalog.Get(problems.KindGeneric), SourceError)
	}

	if len(resp.Interactions) == 0 {
		p := catalog.ForTitle(resp.PostTitle)
		logger.Info("no coding questions for session, using fallback",
			zap.String("session_id", sessionID),
			zap.String("post_title", resp.PostTitle),
			zap.String("problem_id", p.ID))
		return fallbackResult(resp.PostTitle, p, SourceFallback)
	}

	interactions := make([]models.Interaction, 0, len(resp.Interactions))
	for _, rec := range resp.Interactions {
		interactions = append(interactions, rec.ToInteraction())
	}
	return loadResult{postTitle: resp.PostTitle, interactions: interactions, source: SourceBackend}
}

func fallbackResult(postTitle string, p models.Problem, source string) loadResult {
	return loadResult{
		postTitle: postTitle,
		interactions: []models.Interaction{{
			ID:       p.ID,
			Problem:  p,
			Language: p.Language,
			Messages: []models.ChatMessage{},
		}},
		source: source,
	}
}

func greeting(count int) string {
	if count == 1 {
		return fmt.Sprintf("Hi! Welcome to your coding round. You have 1 problem to solve. "+
			"Talk me through your approach as you go, and ask me if you get stuck. You can ask for help up to %d times per problem.",
			models.AssistanceLimit)
	}
	return fmt.Sprintf("Hi! Welcome to your coding round. You have %d problems to solve. "+
		"Talk me through your approach as you go, and ask me if you get stuck. You can ask for help up to %d times per problem.",
		count, models.AssistanceLimit)
}
