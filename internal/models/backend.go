package models

// InteractionRecord is the wire shape of an interaction served by the interview backend.
type InteractionRecord struct {
	ID              string     `json:"id"`
	Title           string     `json:"title,omitempty"`
	Question        string     `json:"question"`
	StarterCode     string     `json:"starter_code"`
	Code            string     `json:"code,omitempty"`
	Language        string     `json:"language,omitempty"`
	AssistanceCount int        `json:"assistance_count"`
	Examples        []TestCase `json:"examples,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	Feedback        *string    `json:"feedback,omitempty"`
}

// ToInteraction converts the record into a fresh session interaction.
func (r InteractionRecord) ToInteraction() Interaction {
	language := r.Language
	if language == "" {
		language = DefaultLanguage
	}
	return Interaction{
		ID: r.ID,
		Problem: Problem{
			ID:          r.ID,
			Title:       r.Title,
			Prompt:      r.Question,
			StarterCode: r.StarterCode,
			Language:    language,
			Examples:    r.Examples,
		},
		Code:            r.Code,
		Language:        language,
		AssistanceCount: ClampAssistance(r.AssistanceCount),
		Messages:        []ChatMessage{},
	}
}

type CodingQuestionsResponse struct {
	Interactions []InteractionRecord `json:"interactions"`
	PostTitle    string              `json:"post_title"`
}

type AssistanceResponse struct {
	AssistanceCount int `json:"assistance_count"`
}

type ContinueSessionResponse struct {
	SessionID string `json:"session_id"`
	RoundType string `json:"round_type"`
	Status    string `json:"status"`
}
