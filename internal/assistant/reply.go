package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"codinground/internal/llm"
	"codinground/internal/models"
	"codinground/internal/problems"
)

// HistoryWindow is how many trailing chat messages go into a reply request.
const HistoryWindow = 10

var ErrEmptyReply = errors.New("interviewer returned an empty reply")

// ReplyInput is everything the interviewer sees for one turn.
type ReplyInput struct {
	Problem  models.Problem
	Code     string
	Language string
	Analysis *models.ObserverAnalysis
	History  []models.ChatMessage
}

// Reply produces the interviewer's next chat message.
func (a *Assistant) Reply(ctx context.Context, in ReplyInput) (string, error) {
	prompt, err := a.prompts.Build(PromptInterviewer, nil)
	if err != nil {
		return "", err
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: interviewerContext(prompt.System, in)}}
	for _, m := range trailing(in.History, HistoryWindow) {
		messages = append(messages, llm.Message{Role: m.Role(), Content: m.Text})
	}

	resp, err := a.send(ctx, PromptInterviewer, llm.CompletionRequest{
		Messages:    messages,
		Model:       a.model,
		Temperature: prompt.Temperature,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func interviewerContext(persona string, in ReplyInput) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(persona))

	b.WriteString("\n\nProblem:\n")
	b.WriteString(problems.ProblemText(in.Problem))

	if in.Analysis != nil {
		if data, err := json.Marshal(in.Analysis); err == nil {
			b.WriteString("\n\nPrivate notes on the candidate's code:\n")
			b.Write(data)
		}
	}

	b.WriteString("\n\nCandidate's current code (")
	b.WriteString(in.Language)
	b.WriteString("):\n")
	b.WriteString(in.Code)
	return b.String()
}

func trailing(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
