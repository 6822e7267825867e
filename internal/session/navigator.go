package session

import (
	"context"
	"fmt"

	"codinground/internal/events"
	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/utils"
)

const previewLength = 100

// SelectQuestion switches the active interaction. Selecting the current index is
// a no-op. The outgoing code is autosaved with a null score in the background.
func (c *Controller) SelectQuestion(ctx context.Context, index int) error {
	c.mu.Lock()
	if err := c.checkEditableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(c.sess.Interactions) {
		c.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if index == c.sess.Current {
		c.mu.Unlock()
		return nil
	}
	c.touch()

	outgoing := c.sess.Active()
	saveID, saveCode, save := outgoing.ID, outgoing.CurrentCode(), !outgoing.IsFallback()

	c.sess.Current = index
	target := c.sess.Active()
	if target.Code == "" {
		target.Code = target.Problem.StarterCode
	}
	notice := c.newMessage(models.SenderInterviewer, models.KindNotice,
		fmt.Sprintf("Switched to question %d: %s", index+1, utils.Truncate(problems.FormatProblemText(target.Problem.Prompt), previewLength)))
	target.Messages = append(target.Messages, notice)
	targetID := target.ID
	c.mu.Unlock()

	if save {
		c.detach("autosave", func(ctx context.Context) error {
			return c.deps.Backend.SaveScore(ctx, c.id, saveID, models.ScoreRequest{Code: saveCode})
		})
	}
	c.deps.Listener.Message(c.id, targetID, notice)
	c.publish(events.TypeQuestionSwitched, map[string]interface{}{
		"from":  saveID,
		"to":    targetID,
		"index": index,
	})
	return nil
}
