package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
)

// Refresh triggers fire shortly after the state change they follow, so the
// backend has settled before the sidebar re-reads it.
const (
	adoptionRefreshDelay = 100 * time.Millisecond
	answerRefreshDelay   = 500 * time.Millisecond
)

// Auth exposes the read-only credentials and the write-once survey session
// id held by the auth collaborator.
type Auth interface {
	Token() (string, bool)
	HasProfile() bool
	ActiveSessionID() (string, bool)
	AdoptSessionID(id string)
}

// Options configures an Orchestrator.
type Options struct {
	Backend backend.Backend
	Auth    Auth
	Logger  *zap.Logger

	// EngagementTimeout overrides the QA engagement timer (tests).
	EngagementTimeout time.Duration

	// Advisory zero-argument triggers toward external progress state.
	RefreshStatus            func()
	RefreshAnsweredQuestions func()
	RefreshProgressSilent    func()
}

// Orchestrator is the single entry point that turns a user submission into
// MessageLog mutations and side-effect triggers. One submission is in
// flight at a time; a new one is refused while a dispatch or a text reveal
// is outstanding.
type Orchestrator struct {
	log      *MessageLog
	animator *Animator
	modes    *ModeController
	gate     *ReadinessGate
	backend  backend.Backend
	auth     Auth
	logger   *zap.Logger

	refreshStatus   func()
	refreshAnswered func()
	refreshProgress func()

	prompts chan struct{}
	notices chan string

	mu              sync.Mutex
	dispatching     bool
	started         bool
	currentQuestion *backend.Question

	timerMu sync.Mutex
	timers  []*time.Timer
	closed  bool
}

// New creates an Orchestrator and its owned components.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		backend:         opts.Backend,
		auth:            opts.Auth,
		logger:          logger,
		refreshStatus:   opts.RefreshStatus,
		refreshAnswered: opts.RefreshAnsweredQuestions,
		refreshProgress: opts.RefreshProgressSilent,
		prompts:         make(chan struct{}, 1),
		notices:         make(chan string, 4),
	}

	o.log = NewMessageLog()
	o.animator = NewAnimator(o.log)
	o.gate = NewReadinessGate(opts.Backend)
	o.modes = NewModeController(ModeControllerOptions{
		Log:               o.log,
		Animator:          o.animator,
		Questions:         opts.Backend,
		Store:             opts.Backend,
		Logger:            logger,
		EngagementTimeout: opts.EngagementTimeout,
		OnPrompt:          o.raisePrompt,
		OnSessionID:       o.adoptSessionID,
		OnQuestion:        o.setCurrentQuestion,
	})

	return o
}

// Log returns the transcript.
func (o *Orchestrator) Log() *MessageLog { return o.log }

// Entries returns a snapshot of the transcript.
func (o *Orchestrator) Entries() []ChatEntry { return o.log.Entries() }

// Mode returns the active conversational mode.
func (o *Orchestrator) Mode() Mode { return o.modes.Mode() }

// Frames returns the in-flight reveal map (entry id → revealed prefix).
func (o *Orchestrator) Frames() map[string]string { return o.animator.Frames() }

// Generating reports whether the bot is producing output.
func (o *Orchestrator) Generating() bool {
	o.mu.Lock()
	dispatching := o.dispatching
	o.mu.Unlock()
	return dispatching || o.animator.Busy()
}

// Prompts delivers one signal per raised mode-switch confirmation.
func (o *Orchestrator) Prompts() <-chan struct{} { return o.prompts }

// Notices delivers transient error notifications for the UI toast.
func (o *Orchestrator) Notices() <-chan string { return o.notices }

// CurrentQuestion returns the last known active survey question, or nil.
func (o *Orchestrator) CurrentQuestion() *backend.Question {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentQuestion
}

// ArmReadiness makes the next submission pass through the readiness gate.
func (o *Orchestrator) ArmReadiness() { o.gate.Arm() }

// Begin seeds the transcript with the opening greeting and arms the
// readiness gate, so the first reply is classified before any survey
// answer is dispatched. Subsequent calls are no-ops.
func (o *Orchestrator) Begin() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	entry := entryFrom(DisplayContent{Text: readinessGreetingText, Kind: KindText}, ModeSurvey)
	o.log.Append(entry)
	o.gate.Arm()
	o.animator.Reveal(entry.ID, readinessGreetingText, nil)
}

// AwaitingReadiness reports whether the gate is armed.
func (o *Orchestrator) AwaitingReadiness() bool { return o.gate.Armed() }

// StopGeneration cancels every in-flight reveal, committing interrupted
// entries with the stopped marker.
func (o *Orchestrator) StopGeneration() { o.animator.Stop() }

// RequestModeSwitch moves the conversation to the target mode.
func (o *Orchestrator) RequestModeSwitch(ctx context.Context, target Mode) {
	switch target {
	case ModeQA:
		o.modes.SwitchToQA()
	case ModeSurvey:
		o.modes.SwitchToSurvey(ctx)
	}
}

// Submit accepts one user submission and runs it to completion. It returns
// ErrBusy while a prior turn is outstanding and nil for an ignored empty
// submission. Collaborator failures are converted to user-visible entries;
// the returned error is informational for the caller's logging only.
func (o *Orchestrator) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	o.mu.Lock()
	if o.dispatching || o.animator.Busy() {
		o.mu.Unlock()
		return ErrBusy
	}
	o.dispatching = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.dispatching = false
		o.mu.Unlock()
	}()

	mode := o.modes.Mode()
	o.log.Append(UserEntry(text, mode))
	placeholder := LoadingEntry(mode)
	o.log.Append(placeholder)

	if o.gate.Armed() {
		return o.resolveReadiness(ctx, text, placeholder.ID)
	}

	if _, ok := o.auth.Token(); !ok {
		o.failTurn(placeholder.ID)
		return &ErrAuthMissing{Missing: "token"}
	}
	if !o.auth.HasProfile() {
		o.failTurn(placeholder.ID)
		return &ErrAuthMissing{Missing: "profile"}
	}

	var err error
	if mode == ModeQA {
		err = o.dispatchQA(ctx, text, placeholder.ID)
	} else {
		err = o.dispatchSurvey(ctx, text, placeholder.ID)
	}
	if err != nil {
		o.logger.Warn("dispatch failed", zap.String("mode", string(mode)), zap.Error(err))
		o.failTurn(placeholder.ID)
	}
	return err
}

// resolveReadiness handles the intercepted submission while the gate is
// armed. Normal mode dispatch is skipped for this turn.
func (o *Orchestrator) resolveReadiness(ctx context.Context, text, placeholderID string) error {
	ready, err := o.gate.Resolve(ctx, text)
	if err != nil {
		o.logger.Warn("intent classification failed", zap.Error(err))
		o.failTurn(placeholderID)
		return err
	}

	if !ready {
		o.log.Patch(placeholderID, func(e *ChatEntry) {
			e.Text = readinessRepromptText
			e.IsLoading = false
		})
		return nil
	}

	o.log.Patch(placeholderID, func(e *ChatEntry) {
		e.Text = readinessAckText
		e.IsLoading = false
	})

	res, err := o.backend.CurrentQuestion(ctx)
	if err != nil || !res.Success || res.Data.CurrentQuestion == nil {
		if err != nil {
			o.logger.Warn("first question fetch failed", zap.Error(err))
		}
		o.log.Patch(placeholderID, func(e *ChatEntry) {
			e.Text = questionFetchFailedText
		})
		return err
	}

	q := res.Data.CurrentQuestion
	o.setCurrentQuestion(q)
	o.adoptSessionID(res.Data.SessionID)

	content := AdaptQuestion(q)
	entry := entryFrom(content, ModeSurvey)
	o.log.Append(entry)

	o.persistTurn(ctx, nil, map[string]any{
		"info":             "question",
		"current_question": q,
		"system_message":   q.Text,
	}, ModeSurvey)

	id := entry.ID
	hasOptions := len(content.Options) > 0
	o.animator.Reveal(id, content.Text, func() {
		if hasOptions {
			o.log.Patch(id, func(e *ChatEntry) { e.OptionsVisible = true })
		}
	})
	return nil
}

// dispatchQA runs one knowledge-base turn.
func (o *Orchestrator) dispatchQA(ctx context.Context, text, placeholderID string) error {
	ans, err := o.backend.QueryKnowledge(ctx, text)
	if err != nil {
		return err
	}

	// A backend-flagged error becomes a transient notification; no bot
	// entry is persisted for the turn.
	if ans.Error {
		msg := ans.Message
		if msg == "" {
			msg = qaErrorFallbackText
		}
		o.notify(msg)
		o.log.Patch(placeholderID, func(e *ChatEntry) {
			e.Text = ""
			e.IsLoading = false
		})
		return nil
	}

	// The QA service never persists exchanges itself.
	o.persistTurn(ctx, &text, map[string]any{"answer": ans.Answer}, ModeQA)

	content := AdaptKnowledgeAnswer(ans)
	o.commit(placeholderID, content, ModeQA)
	o.modes.RecordQAExchange()
	return nil
}

// dispatchSurvey runs one survey-answer turn.
func (o *Orchestrator) dispatchSurvey(ctx context.Context, text, placeholderID string) error {
	res, err := o.backend.SubmitResponse(ctx, text)
	if err != nil {
		return err
	}

	if res.SessionID != "" {
		o.adoptSessionID(res.SessionID)
	}

	content := AdaptSubmitResult(res)
	if res.CurrentQuestion != nil {
		o.setCurrentQuestion(res.CurrentQuestion)
	}

	if !backendPersisted(res) {
		o.persistTurn(ctx, &text, res, ModeSurvey)
	}

	o.commit(placeholderID, content, ModeSurvey)

	o.scheduleRefresh(answerRefreshDelay, o.refreshStatus, o.refreshAnswered, o.refreshProgress)
	return nil
}

// backendPersisted infers from the response shape whether the survey
// service already stored this exchange. Heuristic: a successful response
// carrying a session id was persisted server-side.
func backendPersisted(res *backend.SubmitResult) bool {
	return res.Success && res.SessionID != ""
}

// commit replaces the loading placeholder in place with the adapted
// content and starts the text reveal. Options become visible either
// immediately (carve-out) or when the reveal completes.
func (o *Orchestrator) commit(placeholderID string, content DisplayContent, mode Mode) {
	final := entryFrom(content, mode)
	o.log.Replace(placeholderID, final)

	revealOptionsAfter := len(content.Options) > 0 && !content.OptionsImmediate
	o.animator.Reveal(placeholderID, content.Text, func() {
		if revealOptionsAfter {
			o.log.Patch(placeholderID, func(e *ChatEntry) { e.OptionsVisible = true })
		}
	})
}

// failTurn converts the loading placeholder into the generic retry
// invitation.
func (o *Orchestrator) failTurn(placeholderID string) {
	o.log.Patch(placeholderID, func(e *ChatEntry) {
		e.Text = processingFailedText
		e.IsLoading = false
		e.Kind = KindText
	})
}

// persistTurn writes one exchange to the message store, best effort.
func (o *Orchestrator) persistTurn(ctx context.Context, userText *string, payload any, mode Mode) {
	err := o.backend.AppendMessage(ctx, backend.MessageRecord{
		UserMessage:    userText,
		SystemResponse: payload,
		Mode:           string(mode),
	})
	if err != nil {
		o.logger.Warn("persist exchange failed", zap.Error(err))
	}
}

// adoptSessionID stores a backend-provided session id exactly once per
// session. Later ids never overwrite it.
func (o *Orchestrator) adoptSessionID(id string) {
	if id == "" {
		return
	}
	if _, held := o.auth.ActiveSessionID(); held {
		return
	}
	o.auth.AdoptSessionID(id)
	o.scheduleRefresh(adoptionRefreshDelay, o.refreshStatus, o.refreshProgress)
}

func (o *Orchestrator) setCurrentQuestion(q *backend.Question) {
	o.mu.Lock()
	o.currentQuestion = q
	o.mu.Unlock()
}

func (o *Orchestrator) raisePrompt() {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.prompts <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) notify(msg string) {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.notices <- msg:
	default:
	}
}

// scheduleRefresh invokes the given triggers after d. Timers are owned by
// the orchestrator and cleared on Close.
func (o *Orchestrator) scheduleRefresh(d time.Duration, fns ...func()) {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()
	if o.closed {
		return
	}
	t := time.AfterFunc(d, func() {
		for _, fn := range fns {
			if fn != nil {
				fn()
			}
		}
	})
	o.timers = append(o.timers, t)
}

// Close tears down timers and animations and closes the prompt and
// notice channels so pending receivers return. The transcript is left in
// a terminal, non-partial state.
func (o *Orchestrator) Close() {
	o.timerMu.Lock()
	if o.closed {
		o.timerMu.Unlock()
		return
	}
	o.closed = true
	for _, t := range o.timers {
		t.Stop()
	}
	o.timers = nil
	close(o.prompts)
	close(o.notices)
	o.timerMu.Unlock()

	o.modes.Close()
	o.animator.Stop()
}
