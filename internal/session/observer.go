package session

import (
	"context"

	"go.uber.org/zap"

	"codinground/internal/metrics"
	"codinground/internal/models"
)

// observe is the periodic silent analysis. Its result is never shown to the
// candidate; it only feeds the next chat turn and Run Code.
func (c *Controller) observe() {
	c.mu.Lock()
	if c.closed || c.sess == nil || c.sess.Phase == PhaseDone {
		c.mu.Unlock()
		return
	}
	active := c.sess.Active()
	interactionID, problem, code, language := active.ID, active.Problem, active.CurrentCode(), active.Language
	c.mu.Unlock()

	c.analyze(context.Background(), interactionID, problem, code, language)
}

// analyze runs the observer and replaces the cached analysis. A failed call
// clears it, so the next turn goes without context.
func (c *Controller) analyze(ctx context.Context, interactionID string, problem models.Problem, code, language string) *models.ObserverAnalysis {
	analysis := c.deps.Assistant.Observe(ctx, problem, code, language)
	if analysis == nil {
		metrics.ObserverRuns.WithLabelValues("failed").Inc()
		c.logger.Debug("observer produced no analysis", zap.String("interaction_id", interactionID))
	} else {
		metrics.ObserverRuns.WithLabelValues("ok").Inc()
	}

	if c.deps.Analyses != nil {
		c.deps.Analyses.Set(c.id, interactionID, analysis)
	}
	return analysis
}
