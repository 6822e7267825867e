package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codinground/internal/backend"
	"codinground/internal/events"
	"codinground/internal/metrics"
	"codinground/internal/models"
	"codinground/internal/problems"
	"codinground/internal/timers"
)

// DefaultNextURL is where the candidate goes after the coding round.
const DefaultNextURL = "/interview/{session_id}"

// Deps are the collaborators shared by every controller.
type Deps struct {
	Backend     backend.Backend
	Assistant   Assistant
	Catalog     *problems.Catalog
	Analyses    AnalysisStore
	Scheduler   timers.Scheduler
	Speaker     Speaker
	Screenshots ScreenshotTaker
	Navigator   Navigator
	Listener    Listener
	// AutoConfirm answers prompts raised by a countdown-triggered submission,
	// when nobody is waiting on a request.
	AutoConfirm Confirmer
	Events      events.Publisher
	Logger      *zap.Logger

	NextURL      string
	RoundSeconds int
	Now          func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Scheduler == nil {
		d.Scheduler = timers.Real{}
	}
	if d.Listener == nil {
		d.Listener = nopListener{}
	}
	if d.Speaker == nil {
		d.Speaker = nopListener{}
	}
	if d.Screenshots == nil {
		d.Screenshots = nopListener{}
	}
	if d.Navigator == nil {
		d.Navigator = nopListener{}
	}
	if d.AutoConfirm == nil {
		d.AutoConfirm = Answer(true)
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.NextURL == "" {
		d.NextURL = DefaultNextURL
	}
	if d.RoundSeconds <= 0 {
		d.RoundSeconds = models.DefaultRoundSeconds
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Controller runs one coding round. The mutex guards the aggregate and the timer
// handles and is never held across backend, gateway or client calls.
type Controller struct {
	id     string
	deps   Deps
	logger *zap.Logger

	mu           sync.Mutex
	sess         *Session
	busy         map[string]bool
	loadGen      int
	countdown    timers.Timer
	observerTick timers.Timer
	deferred     timers.Timer
	deferredDone bool
	lastActivity time.Time
	closed       bool

	tasks sync.WaitGroup
}

func NewController(sessionID string, deps Deps) *Controller {
	deps = deps.withDefaults()
	return &Controller{
		id:           sessionID,
		deps:         deps,
		logger:       deps.Logger.With(zap.String("session_id", sessionID)),
		busy:         make(map[string]bool),
		lastActivity: deps.Now(),
	}
}

func (c *Controller) ID() string { return c.id }

// Load fetches the session's problems and resets the round. Reloading cancels
// every timer of the previous load and re-arms the observer.
func (c *Controller) Load(ctx context.Context) (models.SessionSnapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.SessionSnapshot{}, ErrSessionClosed
	}
	if c.sess != nil && (c.sess.Phase == PhaseSubmitting || c.sess.Phase == PhaseTransitioning) {
		c.mu.Unlock()
		return models.SessionSnapshot{}, ErrBusy
	}
	c.loadGen++
	gen := c.loadGen
	c.touch()
	c.mu.Unlock()

	res := loadInteractions(ctx, c.deps.Backend, c.deps.Catalog, c.id, c.logger)
	metrics.SessionsLoaded.WithLabelValues(res.source).Inc()

	greet := c.newMessage(models.SenderInterviewer, models.KindChat, greeting(len(res.interactions)))
	res.interactions[0].Messages = append(res.interactions[0].Messages, greet)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.SessionSnapshot{}, ErrSessionClosed
	}
	if gen != c.loadGen {
		// a newer load won
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}

	c.stopTimersLocked()
	c.deferredDone = false
	c.busy = make(map[string]bool)
	c.sess = &Session{
		ID:           c.id,
		PostTitle:    res.postTitle,
		Interactions: res.interactions,
		Current:      0,
		Remaining:    c.deps.RoundSeconds,
		Phase:        PhaseNotStarted,
	}
	c.observerTick = c.deps.Scheduler.Every(timers.ObserverInterval, c.observe)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.deps.Analyses != nil {
		c.deps.Analyses.DeleteSession(c.id)
	}
	c.deps.Listener.PhaseChanged(c.id, PhaseNotStarted)
	c.deps.Listener.Message(c.id, res.interactions[0].ID, greet)
	c.publish(events.TypeLoaded, map[string]interface{}{
		"source":         res.source,
		"question_count": len(res.interactions),
		"post_title":     res.postTitle,
	})
	c.logger.Info("session loaded", zap.String("source", res.source), zap.Int("questions", len(res.interactions)))
	return snap, nil
}

// Start begins the round: arms the countdown and the one-shot screenshot task and
// speaks the first chat message.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkLoadedLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.sess.Started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.sess.Started = true
	c.sess.Phase = PhaseRunning
	c.touch()
	c.armCountdownLocked()
	if !c.deferredDone {
		c.deferredDone = true
		c.deferred = c.deps.Scheduler.After(timers.DeferredDelay, c.captureScreenshot)
	}

	var first string
	if msgs := c.sess.Interactions[0].Messages; len(msgs) > 0 {
		first = msgs[0].Text
	}
	c.mu.Unlock()

	c.deps.Listener.PhaseChanged(c.id, PhaseRunning)
	if first != "" {
		c.speak(first)
	}
	c.publish(events.TypeStarted, nil)
	c.logger.Info("round started")
	return nil
}

func (c *Controller) armCountdownLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	c.countdown = c.deps.Scheduler.Every(timers.CountdownInterval, c.tick)
}

// tick runs once per second while the round is running.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.closed || c.sess == nil || c.sess.Phase != PhaseRunning {
		c.mu.Unlock()
		return
	}
	if c.sess.Remaining > 0 {
		c.sess.Remaining--
	}
	remaining := c.sess.Remaining
	if remaining == 0 && c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	c.mu.Unlock()

	c.deps.Listener.Tick(c.id, remaining)
	if remaining == 0 {
		c.logger.Info("time is up, submitting")
		if _, err := c.Submit(context.Background(), c.deps.AutoConfirm); err != nil {
			c.logger.Debug("automatic submission skipped", zap.Error(err))
		}
	}
}

func (c *Controller) captureScreenshot() {
	c.mu.Lock()
	if c.closed || c.sess == nil || c.sess.Phase == PhaseDone {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.detach("capture_screenshot", func(ctx context.Context) error {
		return c.deps.Screenshots.Capture(ctx, c.id)
	})
}

// UpdateCode replaces the active interaction's code, and its language when given.
func (c *Controller) UpdateCode(code, language string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditableLocked(); err != nil {
		return err
	}
	active := c.sess.Active()
	active.Code = code
	if language != "" {
		active.Language = language
	}
	c.touch()
	return nil
}

// RunCode simulates running the active code against its examples.
func (c *Controller) RunCode(ctx context.Context) (*models.RunResult, error) {
	c.mu.Lock()
	if err := c.checkLoadedLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	active := c.sess.Active()
	problem, code, language, interactionID := active.Problem, active.CurrentCode(), active.Language, active.ID
	c.touch()
	c.mu.Unlock()

	var analysis *models.ObserverAnalysis
	if c.deps.Analyses != nil {
		analysis, _ = c.deps.Analyses.Get(c.id, interactionID)
	}
	return c.deps.Assistant.RunCode(ctx, problem, code, language, analysis)
}

// Snapshot returns the read model of the session.
func (c *Controller) Snapshot() (models.SessionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return models.SessionSnapshot{}, ErrNotActive
	}
	return c.snapshotLocked(), nil
}

func (c *Controller) snapshotLocked() models.SessionSnapshot {
	active := c.sess.Active()
	msgs := make([]models.ChatMessage, len(active.Messages))
	copy(msgs, active.Messages)
	return models.SessionSnapshot{
		SessionID:        c.sess.ID,
		PostTitle:        c.sess.PostTitle,
		Phase:            string(c.sess.Phase),
		Started:          c.sess.Started,
		RemainingSeconds: c.sess.Remaining,
		CurrentIndex:     c.sess.Current,
		QuestionCount:    len(c.sess.Interactions),
		Problem:          active.Problem,
		Code:             active.CurrentCode(),
		Language:         active.Language,
		AssistanceUsed:   active.AssistanceCount,
		AssistanceLimit:  models.AssistanceLimit,
		IsFallback:       active.IsFallback(),
		Messages:         msgs,
	}
}

// Phase reports the current phase, or NotStarted before the first load.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return PhaseNotStarted
	}
	return c.sess.Phase
}

// LastActivity is the time of the last candidate-driven operation.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Close stops every timer and waits for detached tasks. The controller rejects
// further operations.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimersLocked()
	c.mu.Unlock()

	c.tasks.Wait()
	if c.deps.Analyses != nil {
		c.deps.Analyses.DeleteSession(c.id)
	}
	c.logger.Info("session closed")
}

// Wait blocks until detached tasks finish.
func (c *Controller) Wait() {
	c.tasks.Wait()
}

func (c *Controller) stopTimersLocked() {
	for _, t := range []*timers.Timer{&c.countdown, &c.observerTick, &c.deferred} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

func (c *Controller) checkLoadedLocked() error {
	if c.closed {
		return ErrSessionClosed
	}
	if c.sess == nil {
		return ErrNotActive
	}
	return nil
}

// checkEditableLocked allows edits before and during the round only.
func (c *Controller) checkEditableLocked() error {
	if err := c.checkLoadedLocked(); err != nil {
		return err
	}
	switch c.sess.Phase {
	case PhaseNotStarted, PhaseRunning:
		return nil
	default:
		return ErrNotActive
	}
}

func (c *Controller) touch() {
	c.lastActivity = c.deps.Now()
}

func (c *Controller) newMessage(sender models.Sender, kind models.MessageKind, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Kind:      kind,
		Text:      strings.TrimSpace(text),
		CreatedAt: c.deps.Now(),
	}
}

// detach runs a best-effort task tracked by Close. Errors are logged.
// Must not be called with c.mu held.
func (c *Controller) detach(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.tasks.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("detached task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		if err := fn(context.Background()); err != nil {
			c.logger.Warn("detached task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

func (c *Controller) speak(text string) {
	c.detach("speak", func(ctx context.Context) error {
		return c.deps.Speaker.Speak(ctx, c.id, text)
	})
}

func (c *Controller) publish(eventType string, data map[string]interface{}) {
	ev := events.Event{Type: eventType, SessionID: c.id, At: c.deps.Now(), Data: data}
	c.detach("publish_"+eventType, func(ctx context.Context) error {
		return c.deps.Events.Publish(ctx, ev)
	})
}
