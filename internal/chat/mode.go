package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
)

// DefaultEngagementTimeout is how long continuous QA use runs before the
// respondent is nudged back toward the survey.
const DefaultEngagementTimeout = 180 * time.Second

// QuestionService fetches the survey question the respondent is on.
type QuestionService interface {
	CurrentQuestion(ctx context.Context) (*backend.CurrentQuestionResult, error)
}

// MessageStore persists conversation turns.
type MessageStore interface {
	AppendMessage(ctx context.Context, rec backend.MessageRecord) error
}

// ModeControllerOptions configures a ModeController.
type ModeControllerOptions struct {
	Log       *MessageLog
	Animator  *Animator
	Questions QuestionService
	Store     MessageStore
	Logger    *zap.Logger

	// EngagementTimeout overrides DefaultEngagementTimeout (tests).
	EngagementTimeout time.Duration

	// OnPrompt raises the mode-switch confirmation toward the UI shell.
	OnPrompt func()

	// OnSessionID reports a backend-provided session id for adoption.
	OnSessionID func(string)

	// OnQuestion reports the question that became current via injection.
	OnQuestion func(*backend.Question)
}

// ModeController owns the active conversational mode and the QA engagement
// timer, and injects the current survey question when the conversation
// returns to survey mode mid-QA.
type ModeController struct {
	mu      sync.Mutex
	mode    Mode
	timer   *time.Timer
	timeout time.Duration
	closed  bool

	log       *MessageLog
	animator  *Animator
	questions QuestionService
	store     MessageStore
	logger    *zap.Logger

	onPrompt    func()
	onSessionID func(string)
	onQuestion  func(*backend.Question)
}

// NewModeController creates a controller starting in survey mode.
func NewModeController(opts ModeControllerOptions) *ModeController {
	timeout := opts.EngagementTimeout
	if timeout == 0 {
		timeout = DefaultEngagementTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModeController{
		mode:        ModeSurvey,
		timeout:     timeout,
		log:         opts.Log,
		animator:    opts.Animator,
		questions:   opts.Questions,
		store:       opts.Store,
		logger:      logger,
		onPrompt:    opts.OnPrompt,
		onSessionID: opts.OnSessionID,
		onQuestion:  opts.OnQuestion,
	}
}

// Mode returns the active conversational mode.
func (c *ModeController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SwitchToQA enters QA mode and arms the engagement timer.
func (c *ModeController) SwitchToQA() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeQA {
		return
	}
	c.mode = ModeQA
	c.armTimerLocked()
}

// RecordQAExchange rearms the engagement timer after a successful QA turn.
func (c *ModeController) RecordQAExchange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeQA {
		return
	}
	c.armTimerLocked()
}

// SwitchToSurvey returns to survey mode, cancelling the engagement timer.
// If the most recent log entry was user-authored or a QA-mode system entry,
// the current survey question is fetched and injected so the respondent is
// never left without knowing where the survey stands.
func (c *ModeController) SwitchToSurvey(ctx context.Context) {
	c.mu.Lock()
	if c.mode == ModeSurvey {
		c.mu.Unlock()
		return
	}
	c.mode = ModeSurvey
	c.cancelTimerLocked()
	c.mu.Unlock()

	last, ok := c.log.Last()
	if !ok {
		return
	}
	if last.Author == AuthorUser || (last.Author == AuthorSystem && last.Mode == ModeQA) {
		c.injectCurrentQuestion(ctx)
	}
}

// injectCurrentQuestion appends the survey's current state as a new system
// entry: the pending question (auto-resumed) or the completion message.
func (c *ModeController) injectCurrentQuestion(ctx context.Context) {
	res, err := c.questions.CurrentQuestion(ctx)
	if err != nil {
		c.logger.Warn("current-question fetch failed on mode switch", zap.Error(err))
		return
	}
	if !res.Success {
		c.logger.Warn("current-question fetch unsuccessful on mode switch")
		return
	}

	data := res.Data
	if data.SessionID != "" && c.onSessionID != nil {
		c.onSessionID(data.SessionID)
	}

	switch {
	case data.Status == backend.StatusCompleted:
		content := AdaptCompletion(data.Message)
		entry := entryFrom(content, ModeSurvey)
		c.log.Append(entry)
		c.persist(ctx, map[string]any{
			"info":    "completed",
			"message": data.Message,
		})
		c.animator.Reveal(entry.ID, content.Text, nil)

	case data.CurrentQuestion != nil:
		q := data.CurrentQuestion
		if c.onQuestion != nil {
			c.onQuestion(q)
		}
		content := AdaptAutoResumed(q)
		entry := entryFrom(content, ModeSurvey)
		c.log.Append(entry)
		c.persist(ctx, map[string]any{
			"info":             "question",
			"current_question": q,
			"system_message":   q.Text,
		})
		id := entry.ID
		hasOptions := len(content.Options) > 0
		c.animator.Reveal(id, content.Text, func() {
			if hasOptions {
				c.log.Patch(id, func(e *ChatEntry) { e.OptionsVisible = true })
			}
		})
	}
}

func (c *ModeController) persist(ctx context.Context, payload any) {
	err := c.store.AppendMessage(ctx, backend.MessageRecord{
		SystemResponse: payload,
		Mode:           string(ModeSurvey),
	})
	if err != nil {
		c.logger.Warn("persist injected system entry failed", zap.Error(err))
	}
}

// armTimerLocked (re)starts the engagement timer. Caller holds c.mu.
func (c *ModeController) armTimerLocked() {
	c.cancelTimerLocked()
	if c.closed || c.onPrompt == nil {
		return
	}
	c.timer = time.AfterFunc(c.timeout, c.onPrompt)
}

// cancelTimerLocked stops a pending engagement timer. Caller holds c.mu.
func (c *ModeController) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Close cancels the engagement timer so it cannot fire against a stale
// session.
func (c *ModeController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelTimerLocked()
}
