package models

import "time"

type Sender string

const (
	SenderCandidate   Sender = "candidate"
	SenderInterviewer Sender = "interviewer"
)

type MessageKind string

const (
	KindChat   MessageKind = "chat"
	KindNotice MessageKind = "notice"
)

// ChatMessage is append-only within an interaction's log.
type ChatMessage struct {
	ID        string      `json:"id"`
	Sender    Sender      `json:"sender"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// Role maps the sender onto a completion role.
func (m ChatMessage) Role() string {
	if m.Sender == SenderCandidate {
		return "user"
	}
	return "assistant"
}
