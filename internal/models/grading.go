package models

const (
	MinScore = 0
	MaxScore = 10
)

// GradingResult is produced once per submission attempt; the store keeps the last write.
type GradingResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// RunResult is the simulated execution of the candidate's code.
type RunResult struct {
	Output  string       `json:"output"`
	Error   string       `json:"error,omitempty"`
	Results []TestResult `json:"test_results"`
}

type TestResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}
