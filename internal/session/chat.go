package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codinground/internal/assistant"
	"codinground/internal/events"
	"codinground/internal/metrics"
	"codinground/internal/models"
)

var (
	refusalText = fmt.Sprintf("You've used all %d AI assistance requests for this problem. "+
		"Keep working through it on your own, you're doing fine.", models.AssistanceLimit)
	apologyText = "Sorry, I couldn't respond just now. Please try again in a moment."
)

// SendMessage handles one candidate chat turn on the active interaction.
// The returned message is the interviewer's reply, the quota refusal or the apology.
func (c *Controller) SendMessage(ctx context.Context, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if err := c.checkEditableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	sess, idx := c.sess, c.sess.Current
	inter := &sess.Interactions[idx]
	if c.busy[inter.ID] {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy[inter.ID] = true
	busy := c.busy
	c.touch()

	candidate := c.newMessage(models.SenderCandidate, models.KindChat, text)
	inter.Messages = append(inter.Messages, candidate)

	if inter.AssistanceExhausted() {
		refusal := c.newMessage(models.SenderInterviewer, models.KindChat, refusalText)
		inter.Messages = append(inter.Messages, refusal)
		delete(busy, inter.ID)
		interactionID := inter.ID
		c.mu.Unlock()

		c.deps.Listener.Message(c.id, interactionID, candidate)
		c.deps.Listener.Message(c.id, interactionID, refusal)
		metrics.AssistanceRequests.WithLabelValues("refused").Inc()
		c.publish(events.TypeAssistanceRefused, map[string]interface{}{"interaction_id": interactionID})
		return &refusal, nil
	}

	interactionID := inter.ID
	fallback := inter.IsFallback()
	problem, code, language := inter.Problem, inter.CurrentCode(), inter.Language
	history := make([]models.ChatMessage, len(inter.Messages))
	copy(history, inter.Messages)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(busy, interactionID)
		c.mu.Unlock()
	}()

	c.deps.Listener.Message(c.id, interactionID, candidate)

	reply, err := c.assist(ctx, sess, idx, fallback, problem, code, language, history)
	outcome := "answered"
	if err != nil {
		c.logger.Warn("chat turn failed", zap.String("interaction_id", interactionID), zap.Error(err))
		reply = apologyText
		outcome = "failed"
	}
	metrics.AssistanceRequests.WithLabelValues(outcome).Inc()

	msg := c.newMessage(models.SenderInterviewer, models.KindChat, reply)
	c.mu.Lock()
	// sess and idx were captured at send time: the reply lands on the interaction
	// that asked, even if the candidate switched questions meanwhile.
	sess.Interactions[idx].Messages = append(sess.Interactions[idx].Messages, msg)
	c.mu.Unlock()

	c.deps.Listener.Message(c.id, interactionID, msg)
	if err == nil {
		c.speak(reply)
	}
	return &msg, nil
}

// assist consumes one unit of assistance and asks the interviewer for a reply.
func (c *Controller) assist(ctx context.Context, sess *Session, idx int, fallback bool, problem models.Problem, code, language string, history []models.ChatMessage) (string, error) {
	interactionID := sess.Interactions[idx].ID

	if fallback {
		c.mu.Lock()
		sess.Interactions[idx].AssistanceCount++
		c.mu.Unlock()
	} else {
		count, err := c.deps.Backend.IncrementAssistance(ctx, c.id, interactionID)
		if err != nil {
			return "", fmt.Errorf("increment assistance: %w", err)
		}
		c.mu.Lock()
		sess.Interactions[idx].AssistanceCount = models.ClampAssistance(count)
		c.mu.Unlock()
	}

	analysis := c.analyze(ctx, interactionID, problem, code, language)

	return c.deps.Assistant.Reply(ctx, assistant.ReplyInput{
		Problem:  problem,
		Code:     code,
		Language: language,
		Analysis: analysis,
		History:  history,
	})
}
