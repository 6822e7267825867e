package session

import (
	"context"

	"codinground/internal/assistant"
	"codinground/internal/models"
)

// Phase is the lifecycle state of a coding round.
//
//	NotStarted -> Running -> Submitting    -> Done
//	                      -> Transitioning -> Done
//
// A declined submission returns Submitting to Running.
type Phase string

const (
	PhaseNotStarted    Phase = "not_started"
	PhaseRunning       Phase = "running"
	PhaseSubmitting    Phase = "submitting"
	PhaseTransitioning Phase = "transitioning"
	PhaseDone          Phase = "done"
)

// Session is the aggregate a Controller guards.
type Session struct {
	ID           string
	PostTitle    string
	Interactions []models.Interaction
	Current      int
	Remaining    int
	Started      bool
	Phase        Phase
}

// Active returns the interaction under the current index.
func (s *Session) Active() *models.Interaction {
	return &s.Interactions[s.Current]
}

// Assistant is the AI surface the controller drives.
type Assistant interface {
	Observe(ctx context.Context, problem models.Problem, code, language string) *models.ObserverAnalysis
	Reply(ctx context.Context, in assistant.ReplyInput) (string, error)
	RunCode(ctx context.Context, problem models.Problem, code, language string, analysis *models.ObserverAnalysis) (*models.RunResult, error)
	Grade(ctx context.Context, code, language, problemText string) models.GradingResult
}

// AnalysisStore keeps the latest observer analysis per interaction.
type AnalysisStore interface {
	Set(sessionID, interactionID string, analysis *models.ObserverAnalysis)
	Get(sessionID, interactionID string) (*models.ObserverAnalysis, bool)
	DeleteSession(sessionID string)
}

// Speaker reads text aloud to the candidate.
type Speaker interface {
	Speak(ctx context.Context, sessionID, text string) error
}

// ScreenshotTaker asks the candidate's client to capture its screen.
type ScreenshotTaker interface {
	Capture(ctx context.Context, sessionID string) error
}

// Navigator moves the candidate's client to another page.
type Navigator interface {
	Navigate(ctx context.Context, sessionID, url string) error
}

// Confirmer asks the candidate a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(ctx context.Context, sessionID, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, sessionID, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, sessionID, prompt string) bool {
	return f(ctx, sessionID, prompt)
}

// Answer always gives the same reply.
func Answer(yes bool) Confirmer {
	return ConfirmFunc(func(context.Context, string, string) bool { return yes })
}

// Listener receives state changes the client should render.
type Listener interface {
	Tick(sessionID string, remaining int)
	Message(sessionID, interactionID string, msg models.ChatMessage)
	PhaseChanged(sessionID string, phase Phase)
}

type nopListener struct{}

func (nopListener) Tick(string, int) {}
func (nopListener) Message(string, string, models.ChatMessage) {}
func (nopListener) PhaseChanged(string, Phase) {}
func (nopListener) Speak(context.Context, string, string) error { return nil }
func (nopListener) Capture(context.Context, string) error { return nil }
func (nopListener) Navigate(context.Context, string, string) error { return nil }
