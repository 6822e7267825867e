package models

import (
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4000

type SendMessageRequest struct {
	Text string `json:"text"`
}

// implements the Validator interface
func (r *SendMessageRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return &ErrorResponse{Code: "missing_text", Message: "Message text is required"}
	}
	if utf8.RuneCountInString(r.Text) > maxMessageLength {
		return &ErrorResponse{Code: "text_too_long", Message: "Message text must be at most 4000 characters"}
	}
	return nil
}

type UpdateCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (r *UpdateCodeRequest) Validate() error {
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		return nil
	}
	if !SupportedLanguages[r.Language] {
		return &ErrorResponse{
			Code:    "unsupported_language",
			Message: "Language not supported. Supported languages: " + strings.Join(SupportedLanguagesList(), ", "),
		}
	}
	return nil
}

// SubmitRequest carries the candidate's answer to the "continue anyway?" prompt
// ahead of time, since an HTTP request cannot block on a dialog.
type SubmitRequest struct {
	ProceedOnFailure bool `json:"proceed_on_failure"`
}

func (r *SubmitRequest) Validate() error { return nil }

// SeedQuestionsRequest registers the problems of a session in the local store.
type SeedQuestionsRequest struct {
	PostTitle    string              `json:"post_title"`
	Interactions []InteractionRecord `json:"interactions"`
}

func (r *SeedQuestionsRequest) Validate() error {
	for i := range r.Interactions {
		rec := &r.Interactions[i]
		if strings.TrimSpace(rec.ID) == "" {
			return &ErrorResponse{Code: "missing_id", Message: "every interaction needs an id"}
		}
		if IsFallbackID(rec.ID) {
			return &ErrorResponse{Code: "reserved_id", Message: "ids starting with " + FallbackPrefix + " are reserved"}
		}
		if strings.TrimSpace(rec.Question) == "" {
			return &ErrorResponse{Code: "missing_question", Message: "every interaction needs a question"}
		}
	}
	return nil
}

type ScoreRequest struct {
	Code     string   `json:"code"`
	Score    *float64 `json:"score"`
	Feedback *string  `json:"feedback,omitempty"`
}

func (r *ScoreRequest) Validate() error {
	if r.Score != nil && (*r.Score < MinScore || *r.Score > MaxScore) {
		return &ErrorResponse{Code: "invalid_score", Message: "score must be between 0 and 10"}
	}
	return nil
}

type SessionStatusRequest struct {
	Status    string `json:"status"`
	RoundType string `json:"round_type"`
}

func (r *SessionStatusRequest) Validate() error {
	if r.Status == "" || r.RoundType == "" {
		return &ErrorResponse{Code: "missing_fields", Message: "status and round_type are required"}
	}
	return nil
}

type ContinueSessionRequest struct {
	RoundType string `json:"round_type"`
}

func (r *ContinueSessionRequest) Validate() error {
	if r.RoundType == "" {
		return &ErrorResponse{Code: "missing_round_type", Message: "round_type is required"}
	}
	return nil
}
