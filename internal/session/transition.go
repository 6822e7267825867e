package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"codinground/internal/assistant"
	"codinground/internal/events"
	"codinground/internal/metrics"
	"codinground/internal/models"
	"codinground/internal/problems"
)

// Transition outcomes.
const (
	OutcomeNavigated = "navigated"
	OutcomeHalted    = "halted"
)

const (
	continueFailedPrompt = "We couldn't set up the next interview round. Continue anyway?"
	escapedPrompt        = "Something went wrong while submitting your round. Try to continue to the next round anyway?"
)

// FailurePolicy decides what a failed step does to the rest of the sequence.
type FailurePolicy int

const (
	// ContinueOnFailure records the error and runs the next step.
	ContinueOnFailure FailurePolicy = iota
	// ConfirmOnFailure stops the sequence and asks the candidate whether to proceed.
	ConfirmOnFailure
)

// Step is one unit of a round transition.
type Step struct {
	Name      string
	Run       func(ctx context.Context) error
	OnFailure FailurePolicy
}

// StepResult records what a step did.
type StepResult struct {
	Name    string
	Err     error
	Skipped bool
}

func (r StepResult) report() models.StepReport {
	rep := models.StepReport{Name: r.Name, OK: r.Err == nil, Skipped: r.Skipped}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	return rep
}

var errSkipped = errors.New("skipped")

// escapedError is a panic recovered from a step.
type escapedError struct {
	step  string
	value interface{}
}

func (e *escapedError) Error() string {
	return fmt.Sprintf("step %s panicked: %v", e.step, e.value)
}

func runStep(ctx context.Context, s Step) (res StepResult) {
	res.Name = s.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = &escapedError{step: s.Name, value: r}
		}
	}()

	err := s.Run(ctx)
	if errors.Is(err, errSkipped) {
		res.Skipped = true
		return res
	}
	res.Err = err
	return res
}

// runSteps executes steps in order. It stops early when a ConfirmOnFailure step
// fails (blocked) or when a step panics (escaped).
func runSteps(ctx context.Context, steps []Step) (results []StepResult, blocked bool, escaped error) {
	for _, s := range steps {
		res := runStep(ctx, s)
		results = append(results, res)

		var esc *escapedError
		if errors.As(res.Err, &esc) {
			return results, false, esc
		}
		if res.Err != nil && s.OnFailure == ConfirmOnFailure {
			return results, true, nil
		}
	}
	return results, false, nil
}

// runAll executes every step regardless of failures. Panicking steps are
// recorded in their results and reported through escaped.
func runAll(ctx context.Context, steps []Step) (results []StepResult, escaped []error) {
	for _, s := range steps {
		res := runStep(ctx, s)
		results = append(results, res)

		var esc *escapedError
		if errors.As(res.Err, &esc) {
			escaped = append(escaped, esc)
		}
	}
	return results, escaped
}

type gradeTarget struct {
	interactionID string
	code          string
	language      string
	problemText   string
	fallback      bool
}

func targetOf(inter *models.Interaction) gradeTarget {
	return gradeTarget{
		interactionID: inter.ID,
		code:          inter.CurrentCode(),
		language:      inter.Language,
		problemText:   problems.ProblemText(inter.Problem),
		fallback:      inter.IsFallback(),
	}
}

func (c *Controller) gradeStep(t gradeTarget) Step {
	return Step{
		Name: "grade_and_save:" + t.interactionID,
		Run: func(ctx context.Context) error {
			if t.fallback {
				return errSkipped
			}
			result := c.deps.Assistant.Grade(ctx, t.code, t.language, t.problemText)
			if result.Feedback == assistant.GradeFailedFeedback {
				metrics.Gradings.WithLabelValues("failed").Inc()
			} else {
				metrics.Gradings.WithLabelValues("ok").Inc()
			}
			return c.deps.Backend.SaveScore(ctx, c.id, t.interactionID, models.ScoreRequest{
				Code:     t.code,
				Score:    &result.Score,
				Feedback: &result.Feedback,
			})
		},
	}
}

func (c *Controller) statusStep() Step {
	return Step{
		Name: "update_session_status",
		Run: func(ctx context.Context) error {
			return c.deps.Backend.UpdateSessionStatus(ctx, c.id, models.StatusCompleted, models.RoundTypeCoding)
		},
	}
}

func (c *Controller) continueStep(name string, policy FailurePolicy) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			_, err := c.deps.Backend.ContinueSession(ctx, c.id, models.RoundTypeInterview)
			return err
		},
		OnFailure: policy,
	}
}

// NextURL is where the candidate is sent after the round.
func (c *Controller) NextURL() string {
	return strings.ReplaceAll(c.deps.NextURL, "{session_id}", url.PathEscape(c.id))
}

// Submit grades and saves the active interaction, closes the coding round and
// hands off to the next round. If the next round cannot be set up, confirm
// decides whether the candidate leaves anyway.
func (c *Controller) Submit(ctx context.Context, confirm Confirmer) (*models.TransitionResponse, error) {
	if confirm == nil {
		confirm = c.deps.AutoConfirm
	}

	c.mu.Lock()
	if err := c.checkLoadedLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.sess.Phase != PhaseRunning {
		c.mu.Unlock()
		return nil, ErrNotActive
	}
	c.sess.Phase = PhaseSubmitting
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	target := targetOf(c.sess.Active())
	c.touch()
	c.mu.Unlock()

	c.deps.Listener.PhaseChanged(c.id, PhaseSubmitting)

	results, blocked, escaped := runSteps(ctx, []Step{
		c.gradeStep(target),
		c.statusStep(),
		c.continueStep("continue_session", ConfirmOnFailure),
	})

	switch {
	case escaped != nil:
		c.logger.Error("submission failed unexpectedly", zap.Error(escaped))
		if !confirm.Confirm(ctx, c.id, escapedPrompt) {
			return c.halt("submit", results), nil
		}
		results = append(results, runStep(ctx, c.continueStep("continue_session_retry", ContinueOnFailure)))
	case blocked:
		c.logger.Warn("next round could not be initialized", zap.Error(results[len(results)-1].Err))
		if !confirm.Confirm(ctx, c.id, continueFailedPrompt) {
			return c.halt("submit", results), nil
		}
	}

	return c.complete(ctx, "submit", results), nil
}

// Finish grades and saves every interaction in order, then hands off. It never
// asks the candidate anything and always navigates.
func (c *Controller) Finish(ctx context.Context) (*models.TransitionResponse, error) {
	c.mu.Lock()
	if err := c.checkLoadedLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.sess.Phase != PhaseRunning {
		c.mu.Unlock()
		return nil, ErrNotActive
	}
	c.sess.Phase = PhaseTransitioning
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	steps := make([]Step, 0, len(c.sess.Interactions)+2)
	for i := range c.sess.Interactions {
		steps = append(steps, c.gradeStep(targetOf(&c.sess.Interactions[i])))
	}
	c.touch()
	c.mu.Unlock()

	c.deps.Listener.PhaseChanged(c.id, PhaseTransitioning)

	steps = append(steps, c.statusStep(), c.continueStep("continue_session", ContinueOnFailure))
	results, escaped := runAll(ctx, steps)
	for _, err := range escaped {
		c.logger.Error("finish step failed unexpectedly", zap.Error(err))
	}

	return c.complete(ctx, "finish", results), nil
}

// halt returns a declined submission to the running round.
func (c *Controller) halt(kind string, results []StepResult) *models.TransitionResponse {
	c.mu.Lock()
	if c.sess != nil && c.sess.Phase == PhaseSubmitting && !c.closed {
		c.sess.Phase = PhaseRunning
		if c.sess.Remaining > 0 {
			c.armCountdownLocked()
		}
	}
	c.mu.Unlock()

	c.deps.Listener.PhaseChanged(c.id, PhaseRunning)
	metrics.Transitions.WithLabelValues(kind, OutcomeHalted).Inc()
	c.logger.Info("transition halted by candidate", zap.String("kind", kind))
	return buildResponse(OutcomeHalted, "", results)
}

// complete navigates away and ends the session.
func (c *Controller) complete(ctx context.Context, kind string, results []StepResult) *models.TransitionResponse {
	next := c.NextURL()
	results = append(results, runStep(ctx, Step{
		Name: "navigate",
		Run: func(ctx context.Context) error {
			return c.deps.Navigator.Navigate(ctx, c.id, next)
		},
	}))

	c.mu.Lock()
	if c.sess != nil {
		c.sess.Phase = PhaseDone
	}
	c.stopTimersLocked()
	c.mu.Unlock()

	c.deps.Listener.PhaseChanged(c.id, PhaseDone)
	metrics.Transitions.WithLabelValues(kind, OutcomeNavigated).Inc()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.publish(events.TypeRoundTransitioned, map[string]interface{}{
		"kind":         kind,
		"failed_steps": failed,
		"next_url":     next,
	})
	c.logger.Info("round finished", zap.String("kind", kind), zap.Int("failed_steps", failed))
	return buildResponse(OutcomeNavigated, next, results)
}

func buildResponse(outcome, next string, results []StepResult) *models.TransitionResponse {
	resp := &models.TransitionResponse{Outcome: outcome, NextURL: next, Steps: make([]models.StepReport, 0, len(results))}
	for _, r := range results {
		resp.Steps = append(resp.Steps, r.report())
	}
	return resp
}
