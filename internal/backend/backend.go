// Package backend talks to the interview backend that owns sessions and problems.
package backend

import (
	"context"
	"fmt"

	"codinground/internal/models"
)

// Backend is the set of interview-backend operations a coding round needs.
type Backend interface {
	GetCodingQuestions(ctx context.Context, sessionID string) (*models.CodingQuestionsResponse, error)
	// IncrementAssistance atomically bumps the counter and returns the new value.
	IncrementAssistance(ctx context.Context, sessionID, problemID string) (int, error)
	// SaveScore stores code with an optional score; the last write wins.
	SaveScore(ctx context.Context, sessionID, problemID string, req models.ScoreRequest) error
	UpdateSessionStatus(ctx context.Context, sessionID, status, roundType string) error
	ContinueSession(ctx context.Context, sessionID, roundType string) (*models.ContinueSessionResponse, error)
}

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
