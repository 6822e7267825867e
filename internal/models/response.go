package models

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// generic acknowledgement envelope
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info,omitempty"`
}

// SessionSnapshot is the read model of a running coding round.
type SessionSnapshot struct {
	SessionID        string        `json:"session_id"`
	PostTitle        string        `json:"post_title"`
	Phase            string        `json:"phase"`
	Started          bool          `json:"started"`
	RemainingSeconds int           `json:"remaining_seconds"`
	CurrentIndex     int           `json:"current_index"`
	QuestionCount    int           `json:"question_count"`
	Problem          Problem       `json:"problem"`
	Code             string        `json:"code"`
	Language         string        `json:"language"`
	AssistanceUsed   int           `json:"assistance_used"`
	AssistanceLimit  int           `json:"assistance_limit"`
	IsFallback       bool          `json:"is_fallback"`
	Messages         []ChatMessage `json:"messages"`
}

type StepReport struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type TransitionResponse struct {
	Outcome string       `json:"outcome"`
	NextURL string       `json:"next_url,omitempty"`
	Steps   []StepReport `json:"steps"`
}
