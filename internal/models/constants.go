package models

const (
	// AssistanceLimit caps AI-interviewer turns per interaction.
	AssistanceLimit = 3

	// DefaultRoundSeconds is the countdown a coding round starts with.
	DefaultRoundSeconds = 1800

	// FallbackPrefix marks built-in problems that are never persisted or graded.
	FallbackPrefix = "default-"

	DefaultLanguage = "python"

	RoundTypeCoding    = "coding"
	RoundTypeInterview = "interview"
	StatusCompleted    = "completed"
)

// contains all supported programming languages (in lowercase)
var SupportedLanguages = map[string]bool{
	"python":     true,
	"java":       true,
	"cpp":        true,
	"javascript": true,
	"typescript": true,
}

func SupportedLanguagesList() []string {
	return []string{"python", "java", "cpp", "javascript", "typescript"}
}
