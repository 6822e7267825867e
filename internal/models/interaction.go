package models

// Interaction binds one problem to the candidate's working code, the
// assistance counter and the chat log for that problem.
type Interaction struct {
	ID              string        `json:"id"`
	Problem         Problem       `json:"problem"`
	Code            string        `json:"code"`
	Language        string        `json:"language"`
	AssistanceCount int           `json:"assistance_count"`
	Messages        []ChatMessage `json:"messages"`
}

func (i *Interaction) IsFallback() bool {
	return IsFallbackID(i.ID)
}

// CurrentCode returns the saved code, or the starter code when nothing was saved yet.
func (i *Interaction) CurrentCode() string {
	if i.Code == "" {
		return i.Problem.StarterCode
	}
	return i.Code
}

// ClampAssistance bounds a counter reported by the backend to [0, AssistanceLimit].
func ClampAssistance(n int) int {
	if n < 0 {
		return 0
	}
	if n > AssistanceLimit {
		return AssistanceLimit
	}
	return n
}

// AssistanceExhausted reports whether the interviewer must refuse further turns.
func (i *Interaction) AssistanceExhausted() bool {
	return i.AssistanceCount >= AssistanceLimit
}
