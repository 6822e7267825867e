package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codinground/internal/llm"
	"codinground/internal/llm/llmtest"
	"codinground/internal/models"
	"codinground/internal/prompts"
)

func newTestAssistant(t *testing.T, provider llm.Provider) *Assistant {
	t.Helper()
	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager: %v", err)
	}
	return New(provider, pm, "test-model", nil)
}

var sampleProblem = models.Problem{
	ID:          "p1",
	Title:       "Two Sum",
	Prompt:      "Find two numbers adding to target.",
	StarterCode: "def two_sum(nums, target):\n    pass\n",
	Examples:    []models.TestCase{{Input: "[2,7], 9", Output: "[0,1]"}},
}

func TestObserveParsesAnalysis(t *testing.T) {
	provider := &llmtest.Provider{Reply: "```json\n{\"syntax_error\": true, \"syntax_error_details\": \"line 2\", \"completion_status\": \"completed\", \"summary\": \"close\"}\n```"}
	a := newTestAssistant(t, provider)

	got := a.Observe(context.Background(), sampleProblem, "print(", "python")
	if got == nil {
		t.Fatal("expected analysis, got nil")
	}
	if !got.SyntaxError || got.SyntaxErrorDetails != "line 2" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if got.CompletionStatus != models.CompletionCompleted {
		t.Fatalf("expected completed status, got %s", got.CompletionStatus)
	}
	if got.LogicFlaws == nil {
		t.Fatal("LogicFlaws should be normalized to empty slice")
	}

	req := provider.Requests()[0]
	if req.ResponseFormat != llm.FormatJSON {
		t.Fatalf("observer must request JSON, got %q", req.ResponseFormat)
	}
	if req.Model != "test-model" {
		t.Fatalf("expected configured model, got %q", req.Model)
	}
	if !strings.Contains(req.Messages[1].Content, "1: print(") {
		t.Fatalf("observer prompt should carry numbered code: %s", req.Messages[1].Content)
	}
}

func TestObserveReturnsNilOnFailure(t *testing.T) {
	provider := &llmtest.Provider{CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, &llm.ProviderError{Provider: "mock", Code: llm.ErrCodeServiceDown, Message: "down"}
	}}
	a := newTestAssistant(t, provider)

	if got := a.Observe(context.Background(), sampleProblem, "x = 1", "python"); got != nil {
		t.Fatalf("expected nil analysis, got %+v", got)
	}
}

func TestObserveReturnsNilOnMalformedContent(t *testing.T) {
	a := newTestAssistant(t, &llmtest.Provider{Reply: "I think it looks fine"})

	if got := a.Observe(context.Background(), sampleProblem, "x = 1", "python"); got != nil {
		t.Fatalf("expected nil analysis, got %+v", got)
	}
}

func TestReplySendsContextAndTrailingHistory(t *testing.T) {
	provider := &llmtest.Provider{Reply: "  What is the complexity?  "}
	a := newTestAssistant(t, provider)

	history := make([]models.ChatMessage, 0, 14)
	for i := 0; i < 14; i++ {
		sender := models.SenderCandidate
		if i%2 == 1 {
			sender = models.SenderInterviewer
		}
		history = append(history, models.ChatMessage{Sender: sender, Text: string(rune('a' + i)), CreatedAt: time.Now()})
	}

	reply, err := a.Reply(context.Background(), ReplyInput{
		Problem:  sampleProblem,
		Code:     "def two_sum(): return []",
		Language: "python",
		Analysis: &models.ObserverAnalysis{Summary: "returns empty list"},
		History:  history,
	})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if reply != "What is the complexity?" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}

	req := provider.Requests()[0]
	if len(req.Messages) != 1+HistoryWindow {
		t.Fatalf("expected system + %d messages, got %d", HistoryWindow, len(req.Messages))
	}
	if req.Messages[1].Content != "e" || req.Messages[1].Role != llm.RoleUser {
		t.Fatalf("first history message should be the 5th candidate message, got %+v", req.Messages[1])
	}
	if req.Messages[2].Role != llm.RoleAssistant {
		t.Fatalf("interviewer messages map to assistant role, got %s", req.Messages[2].Role)
	}

	system := llmtest.SystemPrompt(req)
	for _, want := range []string{"never reveal", "returns empty list", "def two_sum(): return []"} {
		if !strings.Contains(system, want) {
			t.Fatalf("system context missing %q", want)
		}
	}
}

func TestReplyWithoutAnalysis(t *testing.T) {
	provider := &llmtest.Provider{Reply: "ok"}
	a := newTestAssistant(t, provider)

	if _, err := a.Reply(context.Background(), ReplyInput{Problem: sampleProblem, Language: "python"}); err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if strings.Contains(llmtest.SystemPrompt(provider.Requests()[0]), "Private notes") {
		t.Fatal("no notes section expected without analysis")
	}
}

func TestReplyEmpty(t *testing.T) {
	a := newTestAssistant(t, &llmtest.Provider{Reply: "   "})
	if _, err := a.Reply(context.Background(), ReplyInput{Problem: sampleProblem}); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestRunCode(t *testing.T) {
	provider := &llmtest.Provider{Reply: `{"output":"[0, 1]","error":"","test_results":[{"input":"[2,7], 9","expected":"[0,1]","actual":"[0,1]","passed":true}]}`}
	a := newTestAssistant(t, provider)

	res, err := a.RunCode(context.Background(), sampleProblem, "code", "python", nil)
	if err != nil {
		t.Fatalf("RunCode returned error: %v", err)
	}
	if len(res.Results) != 1 || !res.Results[0].Passed {
		t.Fatalf("unexpected results: %+v", res)
	}
	if !strings.Contains(provider.Requests()[0].Messages[1].Content, "input: [2,7], 9") {
		t.Fatal("run prompt should include examples")
	}
}

func TestRunCodePlainText(t *testing.T) {
	a := newTestAssistant(t, &llmtest.Provider{Reply: "prints 3"})

	res, err := a.RunCode(context.Background(), sampleProblem, "print(3)", "python", nil)
	if err != nil {
		t.Fatalf("RunCode returned error: %v", err)
	}
	if res.Output != "prints 3" || res.Results == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		score    float64
		feedback string
	}{
		{name: "valid", reply: `{"score": 7.5, "feedback": "Good work."}`, score: 7.5, feedback: "Good work."},
		{name: "fenced", reply: "```json\n{\"score\": 4, \"feedback\": \"Partial.\"}\n```", score: 4, feedback: "Partial."},
		{name: "clamped high", reply: `{"score": 14, "feedback": "x"}`, score: 10, feedback: "x"},
		{name: "clamped low", reply: `{"score": -3, "feedback": "x"}`, score: 0, feedback: "x"},
		{name: "missing feedback", reply: `{"score": 5}`, score: 5, feedback: NoFeedback},
		{name: "missing score", reply: `{"feedback": "hm"}`, score: 0, feedback: GradeFailedFeedback},
		{name: "not json", reply: "Score: 8/10", score: 0, feedback: GradeFailedFeedback},
		{name: "transport error", err: errors.New("connection reset"), score: 0, feedback: GradeFailedFeedback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &llmtest.Provider{CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &llm.CompletionResponse{Content: tt.reply}, nil
			}}
			a := newTestAssistant(t, provider)

			got := a.Grade(context.Background(), "code", "python", "Two Sum")
			if got.Score != tt.score || got.Feedback != tt.feedback {
				t.Fatalf("expected {%v %q}, got {%v %q}", tt.score, tt.feedback, got.Score, got.Feedback)
			}
		})
	}
}

func TestGradeFlattensStructuredProblem(t *testing.T) {
	provider := &llmtest.Provider{Reply: `{"score": 1, "feedback": "f"}`}
	a := newTestAssistant(t, provider)

	a.Grade(context.Background(), "code", "python", `{"title":"Two Sum","description":"Find pair."}`)

	user := provider.Requests()[0].Messages[1].Content
	if !strings.Contains(user, "Title: Two Sum") || strings.Contains(user, `"title"`) {
		t.Fatalf("grading prompt should carry flattened problem text: %s", user)
	}
}
