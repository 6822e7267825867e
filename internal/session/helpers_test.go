package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"codinground/internal/assistant"
	"codinground/internal/cache"
	"codinground/internal/llm"
	"codinground/internal/llm/llmtest"
	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/prompts"
	"codinground/internal/timers"
)

type savedScore struct {
	problemID string
	req       models.ScoreRequest
}

type fakeBackend struct {
	mu sync.Mutex

	questions    *models.CodingQuestionsResponse
	questionsErr error
	incrementFn  func(problemID string) (int, error)
	saveFn       func(problemID string) error
	statusFn     func() error
	continueFn   func() error

	calls []string
	saves []savedScore
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) GetCodingQuestions(ctx context.Context, sessionID string) (*models.CodingQuestionsResponse, error) {
	f.record("get")
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	if f.questions == nil {
		return &models.CodingQuestionsResponse{Interactions: []models.InteractionRecord{}}, nil
	}
	return f.questions, nil
}

func (f *fakeBackend) IncrementAssistance(ctx context.Context, sessionID, problemID string) (int, error) {
	f.record("increment:" + problemID)
	if f.incrementFn != nil {
		return f.incrementFn(problemID)
	}
	return 1, nil
}

func (f *fakeBackend) SaveScore(ctx context.Context, sessionID, problemID string, req models.ScoreRequest) error {
	f.record("save:" + problemID)
	f.mu.Lock()
	f.saves = append(f.saves, savedScore{problemID: problemID, req: req})
	f.mu.Unlock()
	if f.saveFn != nil {
		return f.saveFn(problemID)
	}
	return nil
}

func (f *fakeBackend) UpdateSessionStatus(ctx context.Context, sessionID, status, roundType string) error {
	f.record("status:" + status + ":" + roundType)
	if f.statusFn != nil {
		return f.statusFn()
	}
	return nil
}

func (f *fakeBackend) ContinueSession(ctx context.Context, sessionID, roundType string) (*models.ContinueSessionResponse, error) {
	f.record("continue:" + roundType)
	if f.continueFn != nil {
		if err := f.continueFn(); err != nil {
			return nil, err
		}
	}
	return &models.ContinueSessionResponse{SessionID: sessionID, RoundType: roundType}, nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Saves() []savedScore {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedScore, len(f.saves))
	copy(out, f.saves)
	return out
}

// recorder stands in for the candidate's client.
type recorder struct {
	mu          sync.Mutex
	spoken      []string
	screenshots int
	navigations []string
	phases      []Phase
	ticks       []int
	messages    []models.ChatMessage
}

func (r *recorder) Speak(ctx context.Context, sessionID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recorder) Capture(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screenshots++
	return nil
}

func (r *recorder) Navigate(ctx context.Context, sessionID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, url)
	return nil
}

func (r *recorder) Tick(sessionID string, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, remaining)
}

func (r *recorder) Message(sessionID, interactionID string, msg models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) PhaseChanged(sessionID string, phase Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
}

func (r *recorder) Navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.navigations...)
}

func (r *recorder) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func (r *recorder) Screenshots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screenshots
}

// script answers each call site of the gateway.
type script struct {
	observer string
	reply    string
	replyErr error
	grade    string
	// onReply runs before an interviewer reply is returned
	onReply func()
}

const (
	observerJSON = `{"syntax_error": false, "logic_flaws": ["off by one"], "complexity": "O(n)", "completion_status": "in_progress", "summary": "loop bound wrong"}`
	gradeJSON    = `{"score": 8, "feedback": "Correct and clean."}`
)

func (s *script) provider() *llmtest.Provider {
	return &llmtest.Provider{CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		system := llmtest.SystemPrompt(req)
		switch {
		case strings.Contains(system, "silent observer"):
			content := s.observer
			if content == "" {
				content = observerJSON
			}
			return &llm.CompletionResponse{Content: content}, nil
		case strings.Contains(system, "You grade"):
			content := s.grade
			if content == "" {
				content = gradeJSON
			}
			return &llm.CompletionResponse{Content: content}, nil
		default:
			if s.onReply != nil {
				s.onReply()
			}
			if s.replyErr != nil {
				return nil, s.replyErr
			}
			content := s.reply
			if content == "" {
				content = "What happens when the list is empty?"
			}
			return &llm.CompletionResponse{Content: content}, nil
		}
	}}
}

type harness struct {
	ctrl     *Controller
	backend  *fakeBackend
	provider *llmtest.Provider
	clock    *timers.Manual
	client   *recorder
	analyses *cache.AnalysisCache
}

type harnessOpts struct {
	backend      *fakeBackend
	script       *script
	roundSeconds int
	autoConfirm  Confirmer
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()

	if opts.backend == nil {
		opts.backend = &fakeBackend{questions: twoQuestions()}
	}
	if opts.script == nil {
		opts.script = &script{}
	}

	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager: %v", err)
	}
	catalog, err := problems.NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	h := &harness{
		backend:  opts.backend,
		provider: opts.script.provider(),
		clock:    timers.NewManual(),
		client:   &recorder{},
		analyses: cache.NewAnalysisCache(time.Hour),
	}
	t.Cleanup(h.analyses.Close)

	h.ctrl = NewController("s1", Deps{
		Backend:      h.backend,
		Assistant:    assistant.New(h.provider, pm, "test-model", nil),
		Catalog:      catalog,
		Analyses:     h.analyses,
		Scheduler:    h.clock,
		Speaker:      h.client,
		Screenshots:  h.client,
		Navigator:    h.client,
		Listener:     h.client,
		AutoConfirm:  opts.autoConfirm,
		RoundSeconds: opts.roundSeconds,
	})
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) load(t *testing.T) models.SessionSnapshot {
	t.Helper()
	snap, err := h.ctrl.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return snap
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.load(t)
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
}

// interaction reads an interaction straight from the aggregate.
func (h *harness) interaction(i int) models.Interaction {
	h.ctrl.mu.Lock()
	defer h.ctrl.mu.Unlock()
	inter := h.ctrl.sess.Interactions[i]
	inter.Messages = append([]models.ChatMessage(nil), inter.Messages...)
	return inter
}

func twoQuestions() *models.CodingQuestionsResponse {
	return &models.CodingQuestionsResponse{
		PostTitle: "Backend Engineer",
		Interactions: []models.InteractionRecord{
			{ID: "q1", Title: "Reverse List", Question: "Reverse a linked list in place.", StarterCode: "def reverse(head):\n    pass\n"},
			{ID: "q2", Title: "Merge Intervals", Question: strings.Repeat("Merge all overlapping intervals and return the result sorted by start. ", 3), StarterCode: "def merge(intervals):\n    pass\n"},
		},
	}
}

var errDown = errors.New("backend unavailable")
