package models

import "strings"

type CompletionStatus string

const (
	CompletionNotStarted CompletionStatus = "not_started"
	CompletionInProgress CompletionStatus = "in_progress"
	CompletionCompleted  CompletionStatus = "completed"
)

// ObserverAnalysis is recomputed on every observer call and never persisted.
type ObserverAnalysis struct {
	SyntaxError        bool             `json:"syntax_error"`
	SyntaxErrorDetails string           `json:"syntax_error_details"`
	LogicFlaws         []string         `json:"logic_flaws"`
	Complexity         string           `json:"complexity"`
	CompletionStatus   CompletionStatus `json:"completion_status"`
	Summary            string           `json:"summary"`
}

// Normalize coerces unknown completion statuses and nil slices.
func (a *ObserverAnalysis) Normalize() {
	switch CompletionStatus(strings.ToLower(strings.TrimSpace(string(a.CompletionStatus)))) {
	case CompletionNotStarted, "not-started", "notstarted":
		a.CompletionStatus = CompletionNotStarted
	case CompletionCompleted, "complete":
		a.CompletionStatus = CompletionCompleted
	default:
		a.CompletionStatus = CompletionInProgress
	}
	if a.LogicFlaws == nil {
		a.LogicFlaws = []string{}
	}
}
